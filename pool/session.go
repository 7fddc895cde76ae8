package pool

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// SessionKey identifies one L7 pool bucket (spec.md §4.4.2). Proxy
// identifies the upstream proxy (if any) a session was dialed through, so a
// proxied and a direct session to the same origin never share a pool slot
// (spec.md §4.5 "Proxy semantics": the L7 key MUST include proxy identity
// or proxies bypass pooling entirely).
type SessionKey struct {
	Scheme string
	Host   string
	Port   int
	ALPN   string
	SNI    string
	Proxy  string
}

// Session is a live, multiplexable session handle wrapping an
// already-handshaken connection (spec.md §4.4.2). No background driver
// goroutine is attached to it: responses are read synchronously by the
// requester, and a failed exchange drops the entry through
// SessionPool.MarkInvalid. ID
// gives the handle a stable identity for logging and metrics correlation
// independent of its SessionKey, which may be shared by a rotated handle.
type Session struct {
	ID       uuid.UUID
	Handle   any // *h2.Session or *h3.Session
	lastUsed time.Time
	invalid  bool
}

// NewSession wraps handle with a fresh identity, ready to be stored in the
// pool by the caller's HandshakeFunc.
func NewSession(handle any) *Session {
	return &Session{ID: uuid.New(), Handle: handle, lastUsed: time.Now()}
}

// MarkInvalid flags the session so no new request may start on it; callers
// observing Invalid() must retry via GetOrCreate (spec.md §4.4.2 invariant).
func (s *Session) MarkInvalid() {
	s.invalid = true
}

// Invalid reports whether the session has been marked invalid.
func (s *Session) Invalid() bool {
	return s.invalid
}

func (s *Session) touch() {
	s.lastUsed = time.Now()
}

// HandshakeFunc performs the TCP/QUIC + TLS + protocol handshake for a new
// session (spec.md §4.4.2 "handshake_fn").
type HandshakeFunc func(ctx context.Context) (*Session, error)

type pendingEntry struct {
	mu      sync.Mutex
	session *Session
	err     error
	done    chan struct{}
}

// SessionPool holds live HTTP/2 and HTTP/3 session handles, guaranteeing
// at-most-once concurrent handshake per key (spec.md §4.4.2 invariant:
// "thundering-herd protection").
type SessionPool struct {
	mu          sync.Mutex
	sessions    map[SessionKey]*Session
	pending     map[SessionKey]*pendingEntry
	IdleTimeout time.Duration
}

// NewSessionPool builds a pool with spec.md's default 600s idle timeout.
func NewSessionPool() *SessionPool {
	return &SessionPool{
		sessions:    make(map[SessionKey]*Session),
		pending:     make(map[SessionKey]*pendingEntry),
		IdleTimeout: 600 * time.Second,
	}
}

// GetOrCreate returns the existing healthy handle for key, or runs
// handshake exactly once even under concurrent callers, converging every
// caller on the single new session (spec.md §4.4.2 "get_or_create").
func (p *SessionPool) GetOrCreate(ctx context.Context, key SessionKey, handshake HandshakeFunc) (*Session, error) {
	for {
		p.mu.Lock()
		if s, ok := p.sessions[key]; ok && !s.Invalid() {
			s.touch()
			p.mu.Unlock()
			return s, nil
		}
		if pe, ok := p.pending[key]; ok {
			p.mu.Unlock()
			<-pe.done
			if pe.err != nil {
				return nil, pe.err
			}
			return pe.session, nil
		}

		pe := &pendingEntry{done: make(chan struct{})}
		p.pending[key] = pe
		p.mu.Unlock()

		session, err := handshake(ctx)

		p.mu.Lock()
		delete(p.pending, key)
		if err == nil {
			session.touch()
			p.sessions[key] = session
		}
		p.mu.Unlock()

		pe.session, pe.err = session, err
		close(pe.done)

		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

// MarkInvalid drops the entry for key; the next GetOrCreate call
// re-handshakes (spec.md §4.4.2 "mark_invalid").
func (p *SessionPool) MarkInvalid(key SessionKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[key]; ok {
		s.MarkInvalid()
		delete(p.sessions, key)
	}
}

// EvictIdle drops handles unused for longer than IdleTimeout (spec.md
// §4.4.2 "evict_idle"), closing each evicted Handle when it implements
// io.Closer and aggregating any close failures rather than dropping them.
func (p *SessionPool) EvictIdle(now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs *multierror.Error
	for key, s := range p.sessions {
		if now.Sub(s.lastUsed) > p.IdleTimeout {
			s.MarkInvalid()
			if closer, ok := s.Handle.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
			delete(p.sessions, key)
		}
	}
	return errs.ErrorOrNil()
}
