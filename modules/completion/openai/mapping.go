package openai

import (
	"encoding/json"

	"github.com/chatloop-ai/chatloop/internal/completion"
)

// --- OpenAI API request/response types (unexported, serialization only) ---

type chatRequest struct {
	Model        string         `json:"model"`
	Messages     []chatMessage  `json:"messages"`
	Functions    []chatFunction `json:"functions,omitempty"`
	FunctionCall string         `json:"function_call,omitempty"`
	Temperature  *float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message struct {
		Role         string            `json:"role"`
		Content      string            `json:"content"`
		FunctionCall *chatFunctionCall `json:"function_call,omitempty"`
	} `json:"message"`
	FinishReason *string `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// --- Converter functions ---

// toChatRequest converts a completion request to the OpenAI wire format.
// function_call is set to "auto" whenever a capability catalog is present.
func toChatRequest(req completion.Request) chatRequest {
	cr := chatRequest{
		Model:    req.Model,
		Messages: toMessages(req.Entries),
	}
	if len(req.Functions) > 0 {
		cr.Functions = toFunctions(req.Functions)
		cr.FunctionCall = "auto"
	}
	if req.Temperature > 0 {
		t := req.Temperature
		cr.Temperature = &t
	}
	return cr
}

func toMessages(entries []completion.Entry) []chatMessage {
	out := make([]chatMessage, len(entries))
	for i, e := range entries {
		out[i] = chatMessage{
			Role:    string(e.Role),
			Content: e.Content,
			Name:    e.Name,
		}
	}
	return out
}

func toFunctions(defs []completion.FunctionDef) []chatFunction {
	out := make([]chatFunction, len(defs))
	for i, d := range defs {
		out[i] = chatFunction{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return out
}

// fromResponse converts an OpenAI API response to a completion response.
func fromResponse(resp *chatResponse) completion.Response {
	var cr completion.Response
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		cr.Content = choice.Message.Content
		if fc := choice.Message.FunctionCall; fc != nil {
			cr.FunctionCall = &completion.FunctionCall{
				Name:      fc.Name,
				Arguments: json.RawMessage(fc.Arguments),
			}
		}
	}
	cr.Usage = completion.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return cr
}
