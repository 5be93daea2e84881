package redirectx

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

const (
	_dialTimeout           = 30 * time.Second
	_dialKeepAlive         = 30 * time.Second
	_tlsHandshakeTimeout   = 10 * time.Second
	_idleConnTimeout       = 90 * time.Second
	_expectContinueTimeout = 1 * time.Second
	_maxIdleConns          = 100
	_tlsSessionCacheSize   = 64
)

// DefaultTransport returns a [*http.Transport] with TLS 1.2 or later, modern
// cipher suites and keep-alive enabled.
//
// A redirect chain may visit up to DefaultMaxRedirects+1 hosts, so idle
// connections and TLS sessions are kept per host for at least that many
// requests. Following a redirect back to a host already visited in the chain
// then reuses its connection and resumes its TLS session.
//
// [*http.Transport]: https://godocs.io/net/http#Transport
func DefaultTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   _dialTimeout,
		KeepAlive: _dialKeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       defaultTLSConfig(),
		TLSHandshakeTimeout:   _tlsHandshakeTimeout,
		MaxIdleConns:          _maxIdleConns,
		MaxIdleConnsPerHost:   DefaultMaxRedirects + 1,
		IdleConnTimeout:       _idleConnTimeout,
		ExpectContinueTimeout: _expectContinueTimeout,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
	}
}

// defaultTLSConfig returns the TLS configuration used by DefaultTransport.
func defaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
		ClientSessionCache: tls.NewLRUClientSessionCache(_tlsSessionCacheSize),
	}
}
