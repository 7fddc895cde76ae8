// Package pool implements the two connection pools spec.md §4.4 describes:
// an L4 TCP pool for serial HTTP/1.1 connections, and an L7 session pool for
// multiplexable HTTP/2/HTTP/3 sessions with at-most-once concurrent
// handshake per key.
package pool

import (
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// TCPKey identifies one L4 pool bucket (spec.md §4.4.1).
type TCPKey struct {
	Host string
	Port int
	SNI  string
}

type idleConn struct {
	conn    net.Conn
	idleAt  time.Time
}

// TCPPool holds idle, reusable TCP (optionally TLS-wrapped) streams, keyed
// by (host, port, sni). HTTP/1.1 is strictly serial per connection, so a
// caller that needs a second concurrent request to the same key must open a
// new connection, capped by MaxPerHost.
type TCPPool struct {
	mu          sync.Mutex
	idle        map[TCPKey][]idleConn
	inUse       map[TCPKey]int
	IdleTimeout time.Duration
	MaxPerHost  int
}

// NewTCPPool builds a pool with spec.md's defaults: 90s idle timeout, 10
// connections per host.
func NewTCPPool() *TCPPool {
	return &TCPPool{
		idle:        make(map[TCPKey][]idleConn),
		inUse:       make(map[TCPKey]int),
		IdleTimeout: 90 * time.Second,
		MaxPerHost:  10,
	}
}

// ErrPerHostCapReached is returned by Acquire when the key already has
// MaxPerHost connections in flight and none are idle.
type ErrPerHostCapReached struct{ Key TCPKey }

func (e *ErrPerHostCapReached) Error() string {
	return "pool: per-host connection cap reached for " + e.Key.Host
}

// Acquire returns an idle stream for key, or (nil, nil) if none is
// available and a new connection may be opened (spec.md §4.4.1 "acquire").
func (p *TCPPool) Acquire(key TCPKey) (net.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conns := p.idle[key]; len(conns) > 0 {
		c := conns[len(conns)-1]
		p.idle[key] = conns[:len(conns)-1]
		p.inUse[key]++
		return c.conn, nil
	}
	if p.inUse[key] >= p.MaxPerHost {
		return nil, &ErrPerHostCapReached{Key: key}
	}
	p.inUse[key]++
	return nil, nil
}

// Release returns a healthy stream to the idle pool, or drops it (spec.md
// §4.4.1 "release"). A conn that is not still healthy should be closed by
// the caller and passed as nil.
func (p *TCPPool) Release(key TCPKey, conn net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse[key] > 0 {
		p.inUse[key]--
	}
	if conn == nil {
		return
	}
	p.idle[key] = append(p.idle[key], idleConn{conn: conn, idleAt: time.Now()})
}

// EvictIdle closes and removes idle entries older than IdleTimeout (spec.md
// §4.4.1 "evict_idle"). Close errors across multiple evicted connections are
// aggregated rather than dropped after the first failure.
func (p *TCPPool) EvictIdle(now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs *multierror.Error
	for key, conns := range p.idle {
		kept := conns[:0]
		for _, c := range conns {
			if now.Sub(c.idleAt) > p.IdleTimeout {
				if err := c.conn.Close(); err != nil {
					errs = multierror.Append(errs, err)
				}
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			delete(p.idle, key)
		} else {
			p.idle[key] = kept
		}
	}
	return errs.ErrorOrNil()
}

// CloseAll drops and closes every idle entry for key, e.g. after a
// keep-alive negotiation failure (spec.md §4.4.1 "close_all").
func (p *TCPPool) CloseAll(key TCPKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.idle[key] {
		c.conn.Close()
	}
	delete(p.idle, key)
	delete(p.inUse, key)
}
