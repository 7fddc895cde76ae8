package ghostwire

import (
	"time"

	"github.com/duskmantle/ghostwire/cookiejar"
	"github.com/duskmantle/ghostwire/pool"
	"github.com/duskmantle/ghostwire/profile"
	"github.com/duskmantle/ghostwire/tlsfp"
)

// Config is the orchestrator's configuration surface (spec.md §4.5
// "Configuration").
type Config struct {
	UserAgent string
	Profile   *profile.Profile

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	MaxRedirects int
	VerifyTLS    bool

	PreferHTTP3 bool
	PreferHTTP2 bool

	CookieJar *cookiejar.Jar
	Proxy     *ProxyConfig

	TCPPool     *pool.TCPPool
	SessionPool *pool.SessionPool

	// Engine drives the post-ClientHello TLS handshake; defaults to
	// tlsfp.UTLSEngine{} when nil (spec.md §4.2 Engine seam).
	Engine tlsfp.Engine
}

// DefaultConfig returns spec.md §4.5's stated defaults: 10 max redirects,
// TLS verification on, no protocol preference (requests go straight to
// HTTP/1.1; HTTP/2 is tried only when PreferHTTP2 or PreferHTTP3 is set),
// fresh pools and a fresh cookie jar.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxRedirects:   10,
		VerifyTLS:      true,
		CookieJar:      cookiejar.New(),
		TCPPool:        pool.NewTCPPool(),
		SessionPool:    pool.NewSessionPool(),
		Engine:         tlsfp.UTLSEngine{},
	}
}

func (c *Config) effectiveUserAgent() string {
	if c.Profile != nil && c.Profile.UserAgent != "" {
		return c.Profile.UserAgent
	}
	return c.UserAgent
}
