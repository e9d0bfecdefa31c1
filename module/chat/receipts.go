package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"matchakit/logger"
	"matchakit/tools/safe"
)

// ReadSync keeps the server's notion of "read" in step with what this
// client has loaded: once on session open after the seed, and again on
// every relevant inbound message sent by the peer. Fire-and-forget —
// local IsRead flags are never flipped optimistically; the next
// authoritative fetch carries them.
type ReadSync struct {
	api     API
	peerID  uuid.UUID
	timeout time.Duration
	onError func(string)

	// run executes the receipt call; defaults to safe.Go. Tests inject
	// a synchronous runner.
	run func(func())
}

func NewReadSync(api API, peerID uuid.UUID, timeout time.Duration, onError func(string)) *ReadSync {
	if onError == nil {
		onError = func(string) {}
	}
	return &ReadSync{
		api:     api,
		peerID:  peerID,
		timeout: timeout,
		onError: onError,
		run:     safe.Go,
	}
}

// MarkRead issues the receipt call. Failures are surfaced and logged
// but never block the caller.
func (r *ReadSync) MarkRead() {
	r.run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.api.MarkRead(ctx, r.peerID); err != nil {
			logger.Warnf("[chat] mark read failed: %v", err)
			r.onError("failed to update read state: " + err.Error())
		}
	})
}
