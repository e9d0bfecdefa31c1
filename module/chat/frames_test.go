package chat

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseFrameMessage(t *testing.T) {
	id, from, to := uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	raw := fmt.Sprintf(
		`{"type":"message","data":{"id":%q,"sender_id":%q,"receiver_id":%q,"content":"hey","created_at":%q,"is_read":false}}`,
		id, from, to, created.Format(time.RFC3339))

	f := ParseFrame([]byte(raw))
	if f.Kind != FrameMessage {
		t.Fatalf("kind = %v, want message", f.Kind)
	}
	m := f.Message
	if m.ID != id || m.SenderID != from || m.ReceiverID != to {
		t.Fatalf("ids not decoded: %+v", m)
	}
	if m.Content != "hey" {
		t.Fatalf("content = %q", m.Content)
	}
	if !m.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", m.CreatedAt, created)
	}
}

func TestParseFrameError(t *testing.T) {
	f := ParseFrame([]byte(`{"type":"error","error":"rate limit exceeded"}`))
	if f.Kind != FrameError || f.ErrorText != "rate limit exceeded" {
		t.Fatalf("got %+v", f)
	}
	// An error frame with no text still surfaces something readable.
	f = ParseFrame([]byte(`{"type":"error"}`))
	if f.Kind != FrameError || f.ErrorText == "" {
		t.Fatalf("got %+v", f)
	}
}

func TestParseFrameNoise(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"type":"presence","data":{}}`,
		`{"type":"message"}`,
		`{"type":"message","data":{"id":"not-a-uuid","content":"x"}}`,
		`{"type":"message","data":{"content":"no id"}}`,
		`42`,
		``,
	}
	for _, raw := range cases {
		if f := ParseFrame([]byte(raw)); f.Kind != FrameUnknown {
			t.Fatalf("frame %q parsed as %v, want unknown", raw, f.Kind)
		}
	}
}

func TestSendFrameShape(t *testing.T) {
	to := uuid.New()
	b, err := json.Marshal(SendFrame{ToUserID: to, Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["to_user_id"] != to.String() || m["content"] != "hello" {
		t.Fatalf("wire shape = %v", m)
	}
}
