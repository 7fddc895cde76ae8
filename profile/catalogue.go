package profile

import (
	"sync"

	"github.com/duskmantle/ghostwire/tlsfp"
	"golang.org/x/net/http2"
)

var (
	catalogueOnce sync.Once
	catalogueData map[string]Profile
)

// catalogue lazily builds the process-wide profile table on first access
// and freezes it, so reads need no lock afterwards (spec.md §9 "Global
// catalogue" design note).
func catalogue() map[string]Profile {
	catalogueOnce.Do(func() {
		catalogueData = buildCatalogue()
	})
	return catalogueData
}

func buildCatalogue() map[string]Profile {
	out := make(map[string]Profile)
	for _, p := range []Profile{
		chromeProfile("chrome_120", 120, windowsTCP(), Windows, false,
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromeProfile("chrome_124", 124, linuxTCP(), Linux, false,
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
		chromeProfile("chrome_133", 133, macTCP(), MacOS, false,
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"),
		edgeProfile("edge_120", 120, windowsTCP(), Windows,
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"),
		firefoxProfile("firefox_120", 120, windowsTCP(), Windows,
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0"),
		firefoxProfile("firefox_135", 135, linuxTCP(), Linux,
			"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0"),
		firefoxProfile("firefox_145", 145, macTCP(), MacOS,
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:145.0) Gecko/20100101 Firefox/145.0"),
		safariProfile("safari_16", 16, macTCP(), MacOS, false,
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/605.1.15"),
		safariProfile("safari_17", 17, macTCP(), MacOS, false,
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"),
		safariProfile("safari_ios_18_0", 18, iosTCP(), IOS, true,
			"Mozilla/5.0 (iPhone; CPU iPhone OS 18_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Mobile/15E148 Safari/604.1"),
		okhttpProfile("okhttp_4_12", linuxTCP(), Android,
			"okhttp/4.12.0"),
	} {
		out[p.ID] = p
	}
	return out
}

func iosTCP() TCP {
	t := macTCP()
	t.WindowSize = 65535
	return t
}

// chromiumHTTP2 is the SETTINGS/pseudo-header/priority fingerprint shared by
// Chrome and Edge (spec.md §4.3.2, grounded on the teacher's
// chromeHttp2Settings/chromeHeaderPriority tables).
func chromiumHTTP2() HTTP2 {
	return HTTP2{
		Settings: []Setting{
			{ID: http2.SettingHeaderTableSize, Val: 65536},
			{ID: http2.SettingEnablePush, Val: 0},
			{ID: http2.SettingInitialWindowSize, Val: 6291456},
			{ID: http2.SettingMaxHeaderListSize, Val: 262144},
		},
		PseudoHeaderOrder: []PseudoHeader{PseudoMethod, PseudoAuthority, PseudoScheme, PseudoPath},
		HeaderPriority:    &PriorityParam{StreamDep: 0, Exclusive: true, Weight: 255},
		ConnectionFlow:    15663105,
	}
}

func chromiumHeaders(ua string, greaseCH bool) HeaderProfile {
	return HeaderProfile{
		Order: []string{
			"Host", "Connection", "sec-ch-ua", "sec-ch-ua-mobile", "sec-ch-ua-platform",
			"Upgrade-Insecure-Requests", "User-Agent", "Accept",
			"Sec-Fetch-Site", "Sec-Fetch-Mode", "Sec-Fetch-User", "Sec-Fetch-Dest",
			"Accept-Encoding", "Accept-Language",
		},
		Defaults: map[string]string{
			"sec-ch-ua":                 `"Not A(Brand";v="99", "Chromium";v="120"`,
			"sec-ch-ua-mobile":          "?0",
			"sec-ch-ua-platform":        `"Windows"`,
			"Upgrade-Insecure-Requests": "1",
			"User-Agent":                ua,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-User":            "?1",
			"Sec-Fetch-Dest":            "document",
			"Accept-Encoding":           "gzip, deflate, br",
			"Accept-Language":          "en-US,en;q=0.9",
		},
		GreaseClientHints: greaseCH,
	}
}

func chromeProfile(id string, major int, tcp TCP, os OS, mobile bool, ua string) Profile {
	return Profile{
		ID:                  id,
		BrowserFamily:       Chrome,
		BrowserMajorVersion: major,
		OSFamily:            os,
		IsMobile:            mobile,
		UserAgent:           ua,
		TCP:                 tcp,
		TLS:                 chromeTLSSpec(),
		HTTP2:               chromiumHTTP2(),
		HTTP3:               DefaultHTTP3(),
		Headers:             chromiumHeaders(ua, true),
	}
}

func edgeProfile(id string, major int, tcp TCP, os OS, ua string) Profile {
	p := chromeProfile(id, major, tcp, os, false, ua)
	p.BrowserFamily = Edge
	return p
}

func firefoxHTTP2() HTTP2 {
	return HTTP2{
		Settings: []Setting{
			{ID: http2.SettingHeaderTableSize, Val: 65536},
			{ID: http2.SettingInitialWindowSize, Val: 131072},
			{ID: http2.SettingMaxFrameSize, Val: 16384},
		},
		PseudoHeaderOrder: []PseudoHeader{PseudoMethod, PseudoPath, PseudoAuthority, PseudoScheme},
		PriorityFrames: []PriorityFrame{
			{StreamID: 3, PriorityParam: PriorityParam{StreamDep: 0, Weight: 200}},
			{StreamID: 5, PriorityParam: PriorityParam{StreamDep: 0, Weight: 100}},
			{StreamID: 7, PriorityParam: PriorityParam{StreamDep: 0, Weight: 0}},
			{StreamID: 9, PriorityParam: PriorityParam{StreamDep: 7, Weight: 0}},
			{StreamID: 11, PriorityParam: PriorityParam{StreamDep: 3, Weight: 0}},
		},
		HeaderPriority: &PriorityParam{StreamDep: 13, Weight: 41},
		ConnectionFlow: 12517377,
	}
}

func firefoxHeaders(ua string) HeaderProfile {
	return HeaderProfile{
		Order: []string{
			"Host", "User-Agent", "Accept", "Accept-Language", "Accept-Encoding",
			"Connection", "Upgrade-Insecure-Requests", "Sec-Fetch-Dest", "Sec-Fetch-Mode",
			"Sec-Fetch-Site", "Sec-Fetch-User", "TE",
		},
		Defaults: map[string]string{
			"User-Agent":                ua,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"Accept-Encoding":           "gzip, deflate, br",
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
			"TE":                        "trailers",
		},
	}
}

func firefoxProfile(id string, major int, tcp TCP, os OS, ua string) Profile {
	return Profile{
		ID:                  id,
		BrowserFamily:       Firefox,
		BrowserMajorVersion: major,
		OSFamily:            os,
		UserAgent:           ua,
		TCP:                 tcp,
		TLS:                 firefoxTLSSpec(),
		HTTP2:               firefoxHTTP2(),
		HTTP3:               DefaultHTTP3(),
		Headers:             firefoxHeaders(ua),
	}
}

func safariHTTP2() HTTP2 {
	return HTTP2{
		Settings: []Setting{
			{ID: http2.SettingInitialWindowSize, Val: 4194304},
			{ID: http2.SettingMaxConcurrentStreams, Val: 100},
		},
		PseudoHeaderOrder: []PseudoHeader{PseudoMethod, PseudoScheme, PseudoPath, PseudoAuthority},
		HeaderPriority:    &PriorityParam{StreamDep: 0, Exclusive: false, Weight: 220},
		ConnectionFlow:    10485760,
	}
}

func safariHeaders(ua string) HeaderProfile {
	return HeaderProfile{
		Order: []string{
			"Host", "Accept", "Accept-Language", "Accept-Encoding", "Connection", "User-Agent",
		},
		Defaults: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Accept-Encoding": "gzip, deflate, br",
			"User-Agent":      ua,
		},
	}
}

func safariProfile(id string, major int, tcp TCP, os OS, mobile bool, ua string) Profile {
	return Profile{
		ID:                  id,
		BrowserFamily:       Safari,
		BrowserMajorVersion: major,
		OSFamily:            os,
		IsMobile:            mobile,
		UserAgent:           ua,
		TCP:                 tcp,
		TLS:                 safariTLSSpec(),
		HTTP2:               safariHTTP2(),
		HTTP3:               DefaultHTTP3(),
		Headers:             safariHeaders(ua),
	}
}

func okhttpProfile(id string, tcp TCP, os OS, ua string) Profile {
	return Profile{
		ID:                  id,
		BrowserFamily:       OkHTTP,
		OSFamily:            os,
		IsMobile:            true,
		UserAgent:           ua,
		TCP:                 tcp,
		TLS:                 firefoxTLSSpec(),
		HTTP2: HTTP2{
			Settings: []Setting{
				{ID: http2.SettingMaxConcurrentStreams, Val: 2147483647},
				{ID: http2.SettingInitialWindowSize, Val: 65535},
			},
			PseudoHeaderOrder: []PseudoHeader{PseudoMethod, PseudoPath, PseudoAuthority, PseudoScheme},
			ConnectionFlow:    16777216,
		},
		HTTP3: DefaultHTTP3(),
		Headers: HeaderProfile{
			Order:    []string{"Host", "Connection", "Accept-Encoding", "User-Agent"},
			Defaults: map[string]string{"Accept-Encoding": "gzip", "User-Agent": ua},
		},
	}
}

// chromeTLSSpec is the shared ClientHelloSpec template for Blink-based
// Chromium builds (spec.md §4.1 "TLS spec reuse"): the extension order and
// cipher list stay fixed across Chrome/Edge versions, since those browsers
// don't change their TLS surface release to release nearly as often as
// their HTTP/2 SETTINGS or UA string (spec.md S1 extension sequence).
func chromeTLSSpec() *tlsfp.Spec {
	return &tlsfp.Spec{
		TLSVersionMin: tlsfp.VersionTLS12,
		TLSVersionMax: tlsfp.VersionTLS13,
		CipherSuites: []tlsfp.CipherSuite{
			0, // GREASE
			tlsfp.CipherSuite(tlsfp.CipherAES128GCMSHA256),
			tlsfp.CipherSuite(tlsfp.CipherAES256GCMSHA384),
			tlsfp.CipherSuite(tlsfp.CipherCHACHA20POLY1305SHA256),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSACHACHA20),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSACHACHA20),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES128CBC),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES256CBC),
		},
		CompressionMethods: []byte{0x00},
		SessionIDPolicy:    tlsfp.SessionIDTLS13Compat,
		ALPN:               []string{"h2", "http/1.1"},
		Extensions: []tlsfp.Extension{
			tlsfp.GREASEExtension{},
			tlsfp.SNIExtension{},
			tlsfp.ExtendedMasterSecret(),
			tlsfp.RenegotiationInfo(),
			&tlsfp.SupportedGroupsExtension{Groups: []uint16{
				tlsfp.GroupX25519, tlsfp.GroupP256, tlsfp.GroupP384,
			}},
			&tlsfp.ECPointFormatsExtension{Formats: []byte{0}},
			tlsfp.SessionTicket(),
			&tlsfp.ALPNExtension{Protocols: []string{"h2", "http/1.1"}},
			tlsfp.StatusRequest(),
			&tlsfp.SignatureAlgorithmsExtension{Schemes: []uint16{
				0x0403, 0x0804, 0x0401, 0x0503, 0x0805, 0x0501, 0x0806, 0x0601, 0x0201,
			}},
			tlsfp.SCT(),
			&tlsfp.KeyShareExtension{Groups: []tlsfp.KeyShareGroup{
				{Group: 0, StubLength: 1},
				{Group: tlsfp.GroupX25519},
			}},
			&tlsfp.PSKKeyExchangeModesExtension{Modes: []byte{1}},
			&tlsfp.SupportedVersionsExtension{Versions: []uint16{
				0, tlsfp.VersionTLS13, tlsfp.VersionTLS12,
			}},
			&tlsfp.CertCompressionAlgsExtension{Algorithms: []uint16{2}}, // brotli
			&tlsfp.PaddingExtension{Policy: tlsfp.PaddingPolicy{TargetIfShorterThan: 512}},
		},
	}
}

func firefoxTLSSpec() *tlsfp.Spec {
	return &tlsfp.Spec{
		TLSVersionMin: tlsfp.VersionTLS12,
		TLSVersionMax: tlsfp.VersionTLS13,
		CipherSuites: []tlsfp.CipherSuite{
			tlsfp.CipherSuite(tlsfp.CipherAES128GCMSHA256),
			tlsfp.CipherSuite(tlsfp.CipherCHACHA20POLY1305SHA256),
			tlsfp.CipherSuite(tlsfp.CipherAES256GCMSHA384),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSACHACHA20),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSACHACHA20),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES128CBC),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES128CBC),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES256CBC),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES256CBC),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES128CBC),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES256CBC),
			tlsfp.CipherSuite(0x000a), // TLS_RSA_WITH_3DES_EDE_CBC_SHA, legacy tail
		},
		CompressionMethods: []byte{0x00},
		SessionIDPolicy:    tlsfp.SessionIDEmpty,
		ALPN:               []string{"h2", "http/1.1"},
		Extensions: []tlsfp.Extension{
			tlsfp.SNIExtension{},
			&tlsfp.ALPNExtension{Protocols: []string{"h2", "http/1.1"}},
			&tlsfp.SupportedGroupsExtension{Groups: []uint16{
				tlsfp.GroupX25519, tlsfp.GroupP256, tlsfp.GroupP384, tlsfp.GroupP521,
			}},
			&tlsfp.ECPointFormatsExtension{Formats: []byte{0}},
			tlsfp.SessionTicket(),
			&tlsfp.KeyShareExtension{Groups: []tlsfp.KeyShareGroup{
				{Group: tlsfp.GroupX25519}, {Group: tlsfp.GroupP256},
			}},
			&tlsfp.SupportedVersionsExtension{Versions: []uint16{tlsfp.VersionTLS13, tlsfp.VersionTLS12}},
			&tlsfp.SignatureAlgorithmsExtension{Schemes: []uint16{
				0x0403, 0x0503, 0x0603, 0x0804, 0x0805, 0x0806, 0x0401, 0x0501, 0x0601, 0x0203, 0x0201,
			}},
			&tlsfp.PSKKeyExchangeModesExtension{Modes: []byte{1}},
			&tlsfp.RecordSizeLimitExtension{Limit: 0x4001},
			tlsfp.ExtendedMasterSecret(),
		},
	}
}

func safariTLSSpec() *tlsfp.Spec {
	return &tlsfp.Spec{
		TLSVersionMin: tlsfp.VersionTLS12,
		TLSVersionMax: tlsfp.VersionTLS13,
		CipherSuites: []tlsfp.CipherSuite{
			0, // GREASE
			tlsfp.CipherSuite(tlsfp.CipherAES128GCMSHA256),
			tlsfp.CipherSuite(tlsfp.CipherAES256GCMSHA384),
			tlsfp.CipherSuite(tlsfp.CipherCHACHA20POLY1305SHA256),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES256GCM),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSACHACHA20),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES256CBC),
			tlsfp.CipherSuite(tlsfp.CipherECDHEECDSAAES128CBC),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES128CBC),
			tlsfp.CipherSuite(tlsfp.CipherECDHERSAAES256CBC),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES128GCM),
			tlsfp.CipherSuite(tlsfp.CipherRSAAES256GCM),
		},
		CompressionMethods: []byte{0x00},
		SessionIDPolicy:    tlsfp.SessionIDTLS13Compat,
		ALPN:               []string{"h2", "http/1.1"},
		Extensions: []tlsfp.Extension{
			tlsfp.GREASEExtension{},
			tlsfp.SNIExtension{},
			&tlsfp.ALPNExtension{Protocols: []string{"h2", "http/1.1"}},
			&tlsfp.SupportedVersionsExtension{Versions: []uint16{0, tlsfp.VersionTLS13, tlsfp.VersionTLS12}},
			&tlsfp.SupportedGroupsExtension{Groups: []uint16{tlsfp.GroupX25519, tlsfp.GroupP256, tlsfp.GroupP384}},
			&tlsfp.KeyShareExtension{Groups: []tlsfp.KeyShareGroup{
				{Group: 0, StubLength: 1}, {Group: tlsfp.GroupX25519},
			}},
			&tlsfp.PSKKeyExchangeModesExtension{Modes: []byte{1}},
			&tlsfp.SignatureAlgorithmsExtension{Schemes: []uint16{
				0x0403, 0x0804, 0x0401, 0x0503, 0x0805, 0x0501, 0x0806, 0x0601, 0x0201,
			}},
			tlsfp.StatusRequest(),
			tlsfp.SCT(),
			tlsfp.ExtendedMasterSecret(),
			tlsfp.RenegotiationInfo(),
			&tlsfp.ECPointFormatsExtension{Formats: []byte{0}},
		},
	}
}
