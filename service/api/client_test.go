package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"matchakit/config"
	"matchakit/module/chat"
	"matchakit/tools/errs"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.Default()
	cfg.APIBase = srv.URL
	cfg.Token = "test-token"
	return New(cfg), srv
}

func TestListMessagesPreservesOrder(t *testing.T) {
	other := uuid.New()
	first, second := uuid.New(), uuid.New()
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/users/"+other.String()+"/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]chat.Message{
			{ID: first, Content: "a", CreatedAt: time.Now().UTC()},
			{ID: second, Content: "b", CreatedAt: time.Now().UTC()},
		})
	})

	got, err := c.ListMessages(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != first || got[1].ID != second {
		t.Fatalf("messages = %v", got)
	}
}

func TestSendMessageBodyAndDecode(t *testing.T) {
	other := uuid.New()
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["content"] != "hello" {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(chat.Message{ID: uuid.New(), ReceiverID: other, Content: body["content"]})
	})

	m, err := c.SendMessage(context.Background(), other, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if m.Content != "hello" {
		t.Fatalf("decoded = %+v", m)
	}
}

func TestMarkReadUsesPatch(t *testing.T) {
	other := uuid.New()
	var gotMethod, gotPath string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]int{"updated": 3})
	})

	if err := c.MarkRead(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/api/v1/users/"+other.String()+"/messages/read" {
		t.Fatalf("got %s %s", gotMethod, gotPath)
	}
}

func TestErrorBodyDecoded(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "can only message matches"})
	})

	_, err := c.SendMessage(context.Background(), uuid.New(), "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *errs.CodeError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T", err)
	}
	if ce.Code != errs.CodeCall || ce.Msg != "can only message matches" {
		t.Fatalf("coded error = %+v", ce)
	}
}

func TestGetPresence(t *testing.T) {
	other := uuid.New()
	seen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/presence/"+other.String() {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(chat.Presence{UserID: other, IsOnline: true, LastSeen: &seen})
	})

	p, err := c.GetPresence(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsOnline || p.LastSeen == nil || !p.LastSeen.Equal(seen) {
		t.Fatalf("presence = %+v", p)
	}
}

func TestLoginInstallsToken(t *testing.T) {
	id := uuid.New()
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"token": "fresh-token",
				"user":  map[string]any{"id": id.String(), "email": "a@b.c"},
			})
		case "/api/v1/auth/me":
			if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
				t.Errorf("me called with %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": id.String()})
		}
	})

	res, err := c.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if res.User.ID != id {
		t.Fatalf("login user = %+v", res.User)
	}
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatal(err)
	}
}
