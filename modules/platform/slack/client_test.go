package slack_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatloop-ai/chatloop/modules/platform/slack"
	"github.com/chatloop-ai/chatloop/pkg/chat"
)

func newClient(t *testing.T, handler http.HandlerFunc) *slack.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return slack.New(slack.Config{
		BotToken: "xoxb-test",
		AppToken: "xapp-test",
		AppID:    "A0TEST",
		BaseURL:  srv.URL,
	}, nil)
}

func TestFetchHistory(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.history" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer xoxb-test" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("channel") != "C123" || q.Get("limit") != "2" {
			t.Errorf("query = %v", q)
		}

		_, _ = w.Write([]byte(`{
			"ok": true,
			"messages": [
				{"type": "message", "user": "U2", "text": "newest", "ts": "200.000200"},
				{"type": "message", "bot_id": "B1", "text": "from a bot", "ts": "150.000150"},
				{"type": "channel_join", "user": "U9", "ts": "120.000000"},
				{"type": "message", "user": "U1", "text": "oldest", "ts": "100.000100"}
			]
		}`))
	})

	msgs, err := client.FetchHistory(context.Background(), "C123", 2)
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3 (non-message entries skipped)", len(msgs))
	}
	if msgs[0].Text != "newest" || msgs[0].AuthorID != "U2" || msgs[0].ChannelID != "C123" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].AuthorID != "B1" {
		t.Errorf("bot author = %q, want bot_id fallback", msgs[1].AuthorID)
	}
	if msgs[2].Timestamp != "100.000100" {
		t.Errorf("msgs[2].Timestamp = %q", msgs[2].Timestamp)
	}
}

func TestPostAndUpdateMessage(t *testing.T) {
	t.Parallel()

	var updateBody map[string]string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat.postMessage":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode post body: %v", err)
			}
			if body["channel"] != "C123" || body["text"] != "hello" {
				t.Errorf("post body = %v", body)
			}
			_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "300.000300"}`))
		case "/chat.update":
			if err := json.NewDecoder(r.Body).Decode(&updateBody); err != nil {
				t.Fatalf("decode update body: %v", err)
			}
			_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "300.000300"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	ctx := context.Background()
	handle, err := client.PostMessage(ctx, "C123", "hello")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	want := chat.MessageHandle{ChannelID: "C123", Timestamp: "300.000300"}
	if handle != want {
		t.Errorf("handle = %+v, want %+v", handle, want)
	}

	if err := client.UpdateMessage(ctx, handle, "hello, edited"); err != nil {
		t.Fatalf("UpdateMessage: %v", err)
	}
	if updateBody["ts"] != "300.000300" || updateBody["text"] != "hello, edited" {
		t.Errorf("update body = %v", updateBody)
	}
}

func TestAddReaction_AlreadyReacted(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "already_reacted"}`))
	})

	err := client.AddReaction(context.Background(),
		chat.MessageHandle{ChannelID: "C123", Timestamp: "300.000300"}, "hourglass_flowing_sand")
	if !errors.Is(err, chat.ErrAlreadyReacted) {
		t.Errorf("AddReaction = %v, want ErrAlreadyReacted", err)
	}
}

func TestAddReaction_OtherFailure(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	})

	err := client.AddReaction(context.Background(),
		chat.MessageHandle{ChannelID: "CBAD", Timestamp: "1.0"}, "wrench")
	if err == nil || errors.Is(err, chat.ErrAlreadyReacted) {
		t.Errorf("AddReaction = %v, want platform error", err)
	}
	if !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("error %q does not name the API failure", err)
	}
}

func TestResolveUserProfile(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user") != "U1" {
			t.Errorf("user = %q", r.URL.Query().Get("user"))
		}
		_, _ = w.Write([]byte(`{"ok": true, "profile": {"real_name": "Ryan Porter", "display_name": "ryan"}}`))
	})

	p, err := client.ResolveUserProfile(context.Background(), "U1")
	if err != nil {
		t.Fatalf("ResolveUserProfile: %v", err)
	}
	if p.ID != "U1" || p.RealName != "Ryan Porter" || p.DisplayName != "ryan" {
		t.Errorf("profile = %+v", p)
	}
	if p.FetchedAt.IsZero() {
		t.Error("FetchedAt not stamped")
	}
}

func TestIdentityResolver_CachesAuthTest(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth.test" {
			t.Errorf("path = %q", r.URL.Path)
		}
		calls++
		_, _ = w.Write([]byte(`{"ok": true, "user_id": "U0BOT", "bot_id": "B0BOT"}`))
	})

	resolver := slack.NewIdentityResolver(client)
	ctx := context.Background()

	id, err := resolver.Identity(ctx)
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if id.UserID != "U0BOT" || id.AppID != "A0TEST" || id.Mention != "<@U0BOT>" {
		t.Errorf("identity = %+v", id)
	}

	if _, err := resolver.Identity(ctx); err != nil {
		t.Fatalf("Identity (cached): %v", err)
	}
	if calls != 1 {
		t.Errorf("auth.test calls = %d, want 1", calls)
	}
}

func TestAPIFailureNamesMethod(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "invalid_auth"}`))
	})

	_, err := client.PostMessage(context.Background(), "C123", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "chat.postMessage") || !strings.Contains(err.Error(), "invalid_auth") {
		t.Errorf("error = %q", err)
	}
}

func TestHTTPFailure(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.FetchHistory(context.Background(), "C123", 10)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want HTTP 502 failure", err)
	}
}
