// Package completion defines the contract between the orchestration engine
// and an LLM completion service. Concrete clients live in separate packages
// (e.g., modules/completion/openai).
package completion

import "encoding/json"

// Role identifies the author of a window entry.
type Role string

// Role constants for conversation window entries.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// Entry is one role-tagged entry in a conversation window. Name is set only
// for function-role entries and carries the function's name.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// FunctionCall is a structured request from the model to execute a named
// capability before it will produce a final answer.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// FunctionDef describes a capability the model may invoke. Parameters is a
// JSON-schema object passed to the completion service verbatim.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Request is the input to a Client.Complete call.
type Request struct {
	Model       string        `json:"model"`
	Entries     []Entry       `json:"messages"`
	Functions   []FunctionDef `json:"functions,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// Response is the output of a Client.Complete call. Exactly one of Content
// and FunctionCall is meaningful: a non-nil FunctionCall means the model
// wants a capability executed before answering.
type Response struct {
	Content      string        `json:"content"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	Usage        Usage         `json:"usage"`
}

// Usage tracks token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
