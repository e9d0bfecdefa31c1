package chat

import (
	"github.com/google/uuid"

	"matchakit/logger"
)

// Dispatcher classifies raw inbound frames and routes them into store
// mutations and side effects. It runs on the session loop, so handlers
// never race the store.
type Dispatcher struct {
	selfID uuid.UUID
	peerID uuid.UUID

	store    *Store
	receipts *ReadSync

	onAppend func()
	onError  func(string)
}

func NewDispatcher(selfID, peerID uuid.UUID, store *Store, receipts *ReadSync, onAppend func(), onError func(string)) *Dispatcher {
	if onAppend == nil {
		onAppend = func() {}
	}
	if onError == nil {
		onError = func(string) {}
	}
	return &Dispatcher{
		selfID:   selfID,
		peerID:   peerID,
		store:    store,
		receipts: receipts,
		onAppend: onAppend,
		onError:  onError,
	}
}

// Dispatch handles one raw frame. Malformed or unrecognized input is
// dropped; a message for another conversation multiplexed on the same
// channel never touches the store.
func (d *Dispatcher) Dispatch(raw []byte) {
	f := ParseFrame(raw)
	switch f.Kind {
	case FrameMessage:
		d.onMessage(f.Message)
	case FrameError:
		d.onError(f.ErrorText)
	default:
		logger.Debugf("[chat] dropped frame: %.120s", string(raw))
	}
}

func (d *Dispatcher) onMessage(m *Message) {
	if !d.relevant(m) {
		return
	}
	if d.store.AppendIfNew(*m) {
		d.onAppend()
	}
	// An inbound message from the peer is on screen now; tell the
	// server it has been read. Our own echoes don't count.
	if m.SenderID == d.peerID {
		d.receipts.MarkRead()
	}
}

// relevant reports whether m belongs to this conversation: the
// unordered pair {sender, receiver} must equal {self, peer}.
func (d *Dispatcher) relevant(m *Message) bool {
	return (m.SenderID == d.peerID && m.ReceiverID == d.selfID) ||
		(m.SenderID == d.selfID && m.ReceiverID == d.peerID)
}
