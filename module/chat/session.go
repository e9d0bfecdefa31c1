package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"matchakit/logger"
	"matchakit/service/channel"
	"matchakit/tools/errs"
	"matchakit/tools/safe"
)

// Hooks are optional callbacks for the embedding application. They run
// on the session loop; keep them short.
type Hooks struct {
	// OnUpdate fires after the store changed (seed or append).
	OnUpdate func(msgs []Message)
	// OnError receives user-visible error strings: server-pushed error
	// frames, failed collaborator calls, channel open failures.
	OnError func(msg string)
	// OnLive fires on every channel state transition with the "is
	// live" predicate.
	OnLive func(live bool)
}

type Config struct {
	SelfID uuid.UUID // current user
	PeerID uuid.UUID // other participant

	API   API
	WSURL string // live channel endpoint, credential in the query

	CallTimeout time.Duration // per collaborator call, default 10s
	DialTimeout time.Duration

	Hooks Hooks

	// NewTransport overrides the live transport; nil means a real
	// websocket connection to WSURL. Tests inject fakes here.
	NewTransport func(h channel.Handlers) channel.Transport
}

func (c *Config) norm() error {
	if c.API == nil {
		return errs.NewCodeError(errs.CodeSession, "session config: API is required")
	}
	if c.SelfID == uuid.Nil || c.PeerID == uuid.Nil {
		return errs.NewCodeError(errs.CodeSession, "session config: self and peer ids are required")
	}
	if c.SelfID == c.PeerID {
		return errs.NewCodeError(errs.CodeSession, "session config: cannot chat with yourself")
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.Hooks.OnUpdate == nil {
		c.Hooks.OnUpdate = func([]Message) {}
	}
	if c.Hooks.OnError == nil {
		c.Hooks.OnError = func(string) {}
	}
	if c.Hooks.OnLive == nil {
		c.Hooks.OnLive = func(bool) {}
	}
	if c.NewTransport == nil {
		url := c.WSURL
		dial := c.DialTimeout
		c.NewTransport = func(h channel.Handlers) channel.Transport {
			return channel.New(channel.Conf{URL: url, DialTimeout: dial}, h)
		}
	}
	return nil
}

// Session is one open conversation: the pairing of the current user and
// one other participant. It exclusively owns one Store and one live
// transport, and runs all mutation on a single loop so events are
// processed strictly in arrival order.
//
// A Session is single-use. Switching to another participant means
// Close() here and Open() a fresh one; completions that resolve after
// Close are dropped, so a torn-down session can never leak state into
// its successor.
type Session struct {
	cfg   Config
	store *Store
	disp  *Dispatcher
	reads *ReadSync
	tr    channel.Transport

	presence     Presence
	havePresence bool

	ctx    context.Context
	cancel context.CancelFunc
	calls  chan func()
	closed atomic.Bool
	once   sync.Once
}

// Open seeds the store from a historical fetch, fires the initial read
// receipt, and brings up the live channel. A history-fetch failure is a
// hard failure of the session; a channel open failure is not — the
// fallback send path covers a dead channel.
//
// ctx bounds only the opening work; the session itself lives until
// Close.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if err := cfg.norm(); err != nil {
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:    cfg,
		store:  NewStore(),
		ctx:    loopCtx,
		cancel: cancel,
		calls:  make(chan func(), 16),
	}
	s.reads = NewReadSync(cfg.API, cfg.PeerID, cfg.CallTimeout, s.postError)
	s.disp = NewDispatcher(cfg.SelfID, cfg.PeerID, s.store, s.reads, s.notifyUpdate, s.surfaceError)

	opCtx, opCancel := context.WithTimeout(ctx, cfg.CallTimeout)
	history, err := cfg.API.ListMessages(opCtx, cfg.PeerID)
	opCancel()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "fetch history")
	}
	s.store.Seed(history)

	// One-shot presence; a failure is surfaced but does not kill the
	// session.
	opCtx, opCancel = context.WithTimeout(ctx, cfg.CallTimeout)
	p, perr := cfg.API.GetPresence(opCtx, cfg.PeerID)
	opCancel()
	if perr != nil {
		logger.Warnf("[chat] presence fetch failed: %v", perr)
	} else {
		s.presence = p
		s.havePresence = true
	}

	safe.Go(s.run)

	// History is loaded and (about to be) displayed: sync read state.
	s.reads.MarkRead()

	s.tr = cfg.NewTransport(channel.Handlers{
		OnFrame: s.onFrame,
		OnState: s.onState,
	})
	safe.Go(func() {
		if err := s.tr.Open(s.ctx); err != nil {
			logger.Warnf("[chat] live channel open failed: %v", err)
			s.post(func() { s.cfg.Hooks.OnError("live channel unavailable: " + err.Error()) })
		}
	})

	if perr != nil {
		s.post(func() { s.cfg.Hooks.OnError("failed to load presence: " + perr.Error()) })
	}

	return s, nil
}

// Send routes one outbound message. Empty-after-trim input is a no-op.
// While the channel is live the frame goes out directly and the message
// becomes visible later via the dispatcher echo; otherwise the fallback
// request/response send runs, followed by a full refetch that reseeds
// the store. Either way the view converges with server history.
func (s *Session) Send(content string) error {
	if s.closed.Load() {
		return errs.ErrSessionClosed
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return errs.ErrContentTooLong
	}

	if s.tr != nil && s.tr.IsLive() {
		return s.tr.SendJSON(SendFrame{ToUserID: s.cfg.PeerID, Content: content})
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.CallTimeout)
	defer cancel()
	if _, err := s.cfg.API.SendMessage(ctx, s.cfg.PeerID, content); err != nil {
		return errors.Wrap(err, "fallback send")
	}
	history, err := s.cfg.API.ListMessages(ctx, s.cfg.PeerID)
	if err != nil {
		return errors.Wrap(err, "refresh after fallback send")
	}
	s.post(func() {
		s.store.Seed(history)
		s.notifyUpdate()
	})
	return nil
}

// Close tears the session down: the transport is forcibly closed and
// any in-flight completions are suppressed. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		if s.tr != nil {
			s.tr.Close()
		}
		s.cancel()
	})
}

// Messages is a snapshot of the conversation in display order.
func (s *Session) Messages() []Message { return s.store.Messages() }

// Live reports whether the push channel is currently connected.
func (s *Session) Live() bool { return s.tr != nil && s.tr.IsLive() }

// PeerPresence returns the snapshot fetched on open, if any.
func (s *Session) PeerPresence() (Presence, bool) { return s.presence, s.havePresence }

func (s *Session) run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.calls:
			fn()
		}
	}
}

// post schedules fn on the session loop. After Close it is a no-op,
// which is the staleness guard for completions of a torn-down session.
func (s *Session) post(fn func()) {
	select {
	case <-s.ctx.Done():
	case s.calls <- fn:
	}
}

func (s *Session) onFrame(raw []byte) {
	s.post(func() { s.disp.Dispatch(raw) })
}

func (s *Session) onState(st channel.State) {
	live := st == channel.StateConnected
	s.post(func() { s.cfg.Hooks.OnLive(live) })
}

func (s *Session) notifyUpdate() {
	s.cfg.Hooks.OnUpdate(s.store.Messages())
}

// surfaceError runs on the session loop (dispatcher side effects).
func (s *Session) surfaceError(msg string) {
	s.cfg.Hooks.OnError(msg)
}

// postError is for callers off the loop (receipt goroutine, channel
// open); it schedules the hook onto the loop.
func (s *Session) postError(msg string) {
	s.post(func() { s.cfg.Hooks.OnError(msg) })
}
