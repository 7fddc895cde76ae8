package pool

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTCPPoolAcquireReleaseRoundTrip(t *testing.T) {
	p := NewTCPPool()
	key := TCPKey{Host: "example.com", Port: 443}

	c, err := p.Acquire(key)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil conn on first acquire (no idle entries yet)")
	}

	client, server := net.Pipe()
	defer server.Close()
	p.Release(key, client)

	got, err := p.Acquire(key)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if got != client {
		t.Error("Acquire didn't return the released connection")
	}
}

func TestTCPPoolPerHostCap(t *testing.T) {
	p := NewTCPPool()
	p.MaxPerHost = 1
	key := TCPKey{Host: "example.com", Port: 443}

	if _, err := p.Acquire(key); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if _, err := p.Acquire(key); err == nil {
		t.Fatal("expected ErrPerHostCapReached on second concurrent acquire")
	}
}

func TestTCPPoolEvictIdle(t *testing.T) {
	p := NewTCPPool()
	p.IdleTimeout = time.Millisecond
	key := TCPKey{Host: "example.com", Port: 443}
	client, server := net.Pipe()
	defer server.Close()
	p.Release(key, client)

	time.Sleep(5 * time.Millisecond)
	p.EvictIdle(time.Now())

	p.mu.Lock()
	n := len(p.idle[key])
	p.mu.Unlock()
	if n != 0 {
		t.Errorf("idle entries after eviction = %d, want 0", n)
	}
}

func TestSessionPoolAtMostOnceHandshake(t *testing.T) {
	p := NewSessionPool()
	key := SessionKey{Scheme: "https", Host: "example.com", Port: 443, ALPN: "h2"}

	var handshakes int32
	handshake := func(ctx context.Context) (*Session, error) {
		atomic.AddInt32(&handshakes, 1)
		time.Sleep(20 * time.Millisecond)
		return &Session{Handle: "conn"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*Session, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := p.GetOrCreate(context.Background(), key, handshake)
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()

	if atomic.LoadInt32(&handshakes) != 1 {
		t.Errorf("handshake ran %d times, want exactly 1", handshakes)
	}
	for i, s := range results {
		if s != results[0] {
			t.Errorf("result[%d] is a different session than result[0]", i)
		}
	}
}

func TestSessionPoolMarkInvalidForcesRehandshake(t *testing.T) {
	p := NewSessionPool()
	key := SessionKey{Scheme: "https", Host: "example.com", Port: 443, ALPN: "h2"}

	var handshakes int32
	handshake := func(ctx context.Context) (*Session, error) {
		atomic.AddInt32(&handshakes, 1)
		return &Session{Handle: "conn"}, nil
	}

	if _, err := p.GetOrCreate(context.Background(), key, handshake); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	p.MarkInvalid(key)
	if _, err := p.GetOrCreate(context.Background(), key, handshake); err != nil {
		t.Fatalf("GetOrCreate after invalidate: %v", err)
	}
	if atomic.LoadInt32(&handshakes) != 2 {
		t.Errorf("handshakes = %d, want 2", handshakes)
	}
}
