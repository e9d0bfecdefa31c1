package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeAPI records collaborator calls; shared by the dispatcher and
// session tests.
type fakeAPI struct {
	mu      sync.Mutex
	history []Message

	listErr error
	sendErr error
	markErr error
	presErr error

	listCalls int
	sendCalls int
	markCalls int
	sent      []string

	presence Presence
}

func (f *fakeAPI) ListMessages(context.Context, uuid.UUID) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Message, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, other uuid.UUID, content string) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return Message{}, f.sendErr
	}
	f.sent = append(f.sent, content)
	return Message{ID: uuid.New(), ReceiverID: other, Content: content}, nil
}

func (f *fakeAPI) MarkRead(context.Context, uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	return f.markErr
}

func (f *fakeAPI) GetPresence(context.Context, uuid.UUID) (Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presErr != nil {
		return Presence{}, f.presErr
	}
	return f.presence, nil
}

func (f *fakeAPI) counts() (list, send, mark int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.sendCalls, f.markCalls
}

func messageFrame(t *testing.T, m Message) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"type": "message", "data": m})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func newTestDispatcher(t *testing.T, api *fakeAPI, self, peer uuid.UUID) (*Dispatcher, *Store, *[]string) {
	t.Helper()
	store := NewStore()
	rs := NewReadSync(api, peer, time.Second, nil)
	rs.run = func(f func()) { f() } // synchronous for deterministic counts
	var errsSeen []string
	d := NewDispatcher(self, peer, store, rs, nil, func(msg string) { errsSeen = append(errsSeen, msg) })
	return d, store, &errsSeen
}

func TestDispatchRelevanceFilter(t *testing.T) {
	self, peer, stranger := uuid.New(), uuid.New(), uuid.New()
	api := &fakeAPI{}
	d, store, _ := newTestDispatcher(t, api, self, peer)

	// Another conversation multiplexed on the same channel.
	d.Dispatch(messageFrame(t, Message{ID: uuid.New(), SenderID: stranger, ReceiverID: self, Content: "psst"}))
	d.Dispatch(messageFrame(t, Message{ID: uuid.New(), SenderID: self, ReceiverID: stranger, Content: "psst"}))
	d.Dispatch(messageFrame(t, Message{ID: uuid.New(), SenderID: stranger, ReceiverID: peer, Content: "psst"}))

	if store.Len() != 0 {
		t.Fatalf("irrelevant messages mutated the store: %v", store.Messages())
	}
	if _, _, mark := api.counts(); mark != 0 {
		t.Fatalf("irrelevant messages triggered %d mark-read calls", mark)
	}

	// Both directions of this conversation pass the filter.
	d.Dispatch(messageFrame(t, Message{ID: uuid.New(), SenderID: peer, ReceiverID: self, Content: "in"}))
	d.Dispatch(messageFrame(t, Message{ID: uuid.New(), SenderID: self, ReceiverID: peer, Content: "out"}))
	if store.Len() != 2 {
		t.Fatalf("store length = %d, want 2", store.Len())
	}
}

func TestDispatchReadReceiptTrigger(t *testing.T) {
	self, peer := uuid.New(), uuid.New()
	api := &fakeAPI{}
	d, _, _ := newTestDispatcher(t, api, self, peer)

	d.Dispatch(messageFrame(t, Message{ID: uuid.New(), SenderID: peer, ReceiverID: self, Content: "from them"}))
	if _, _, mark := api.counts(); mark != 1 {
		t.Fatalf("peer message triggered %d mark-read calls, want 1", mark)
	}

	// An echo of our own send must not trigger a receipt.
	d.Dispatch(messageFrame(t, Message{ID: uuid.New(), SenderID: self, ReceiverID: peer, Content: "echo"}))
	if _, _, mark := api.counts(); mark != 1 {
		t.Fatalf("own echo changed mark-read count to %d", mark)
	}
}

func TestDispatchDuplicateEcho(t *testing.T) {
	self, peer := uuid.New(), uuid.New()
	api := &fakeAPI{}
	d, store, _ := newTestDispatcher(t, api, self, peer)

	m := Message{ID: uuid.New(), SenderID: peer, ReceiverID: self, Content: "hello"}
	store.Seed([]Message{m})

	// The live echo of an already-seeded message: at-least-once
	// delivery, dedup makes it harmless.
	d.Dispatch(messageFrame(t, m))
	if store.Len() != 1 {
		t.Fatalf("duplicate echo grew the store to %d", store.Len())
	}
}

func TestDispatchErrorFrame(t *testing.T) {
	self, peer := uuid.New(), uuid.New()
	api := &fakeAPI{}
	d, store, errsSeen := newTestDispatcher(t, api, self, peer)

	d.Dispatch([]byte(`{"type":"error","error":"can only message matches"}`))
	if len(*errsSeen) != 1 || (*errsSeen)[0] != "can only message matches" {
		t.Fatalf("surfaced errors = %v", *errsSeen)
	}
	if store.Len() != 0 {
		t.Fatal("error frame must not touch the store")
	}
}

func TestDispatchMalformedDropped(t *testing.T) {
	self, peer := uuid.New(), uuid.New()
	api := &fakeAPI{}
	d, store, errsSeen := newTestDispatcher(t, api, self, peer)

	d.Dispatch([]byte(`{{{`))
	d.Dispatch([]byte(`{"type":"message","data":{"id":"garbage"}}`))
	d.Dispatch([]byte(`{"type":"typing","data":{}}`))

	if store.Len() != 0 || len(*errsSeen) != 0 {
		t.Fatalf("noise must be silent: store=%d errs=%v", store.Len(), *errsSeen)
	}
	if _, _, mark := api.counts(); mark != 0 {
		t.Fatal("noise triggered mark-read")
	}
}
