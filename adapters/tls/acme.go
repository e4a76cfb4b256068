package tls

import (
	"context"
	cryptotls "crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

const (
	letsEncryptProduction = "https://acme-v02.api.letsencrypt.org/directory"
	letsEncryptStaging    = "https://acme-staging-v02.api.letsencrypt.org/directory"
)

// ACMEConfig holds configuration for the ACME provider.
type ACMEConfig struct {
	Email    string
	Domains  []string // allowed hosts; "*.example.com" matches subdomains
	CacheDir string
	Staging  bool
}

// ACMEProvider obtains certificates from Let's Encrypt on demand.
type ACMEProvider struct {
	manager *autocert.Manager
	cache   *CertCache
	staging bool
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	domains []string

	rateLimitMu    sync.RWMutex
	rateLimitUntil map[string]time.Time
}

// NewACMEProvider creates a provider. No network traffic happens until the
// first TLS handshake asks for a certificate.
func NewACMEProvider(cfg ACMEConfig, logger zerolog.Logger) *ACMEProvider {
	logger = logger.With().Str("component", "acme").Logger()

	var cache *CertCache
	if cfg.CacheDir != "" {
		cache = NewDirCertCache(cfg.CacheDir, logger)
	} else {
		logger.Warn().Msg("no certificate cache dir, ACME account is memory-only")
		cache = NewCertCache(nil, logger)
	}

	p := &ACMEProvider{
		cache:          cache,
		staging:        cfg.Staging,
		logger:         logger,
		now:            time.Now,
		domains:        cfg.Domains,
		rateLimitUntil: make(map[string]time.Time),
	}

	p.manager = &autocert.Manager{
		Cache:      cache,
		Prompt:     autocert.AcceptTOS,
		Email:      cfg.Email,
		HostPolicy: p.hostPolicy,
		Client: &acme.Client{
			DirectoryURL: p.DirectoryURL(),
			HTTPClient:   &http.Client{Timeout: 60 * time.Second},
		},
	}

	logger.Info().
		Str("directory", p.DirectoryURL()).
		Strs("domains", cfg.Domains).
		Str("cache_dir", cfg.CacheDir).
		Msg("acme provider ready")
	return p
}

// DirectoryURL returns the ACME directory in use.
func (p *ACMEProvider) DirectoryURL() string {
	if p.staging {
		return letsEncryptStaging
	}
	return letsEncryptProduction
}

// TLSConfig returns a server TLS config that answers TLS-ALPN-01 challenges
// and serves managed certificates.
func (p *ACMEProvider) TLSConfig() *cryptotls.Config {
	cfg := p.manager.TLSConfig()
	cfg.GetCertificate = p.GetCertificate
	return cfg
}

// HTTPHandler serves HTTP-01 challenges and redirects everything else to
// HTTPS when fallback is nil.
func (p *ACMEProvider) HTTPHandler(fallback http.Handler) http.Handler {
	return p.manager.HTTPHandler(fallback)
}

// GetCertificate wraps autocert with host policy logging and a per-domain
// rate-limit backoff.
func (p *ACMEProvider) GetCertificate(hello *cryptotls.ClientHelloInfo) (*cryptotls.Certificate, error) {
	domain := hello.ServerName
	start := p.now()

	if err := p.hostPolicy(context.Background(), domain); err != nil {
		p.logger.Warn().Str("domain", domain).Err(err).Msg("domain rejected by host policy")
		return nil, err
	}

	if until, limited := p.RateLimitedUntil(domain); limited {
		return nil, fmt.Errorf("rate limited for domain %s, retry after %s", domain, until.Format(time.RFC3339))
	}

	cert, err := p.manager.GetCertificate(hello)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "rateLimited") || strings.Contains(msg, "429") {
			until := p.parseRetryAfter(msg)
			p.rateLimitMu.Lock()
			p.rateLimitUntil[domain] = until
			p.rateLimitMu.Unlock()
			p.logger.Error().Str("domain", domain).Time("retry_after", until).Msg("rate limited by ACME server")
			return nil, fmt.Errorf("rate limited for domain %s, retry after %s", domain, until.Format(time.RFC3339))
		}
		p.logger.Error().Str("domain", domain).Err(err).Dur("duration", p.now().Sub(start)).Msg("certificate acquisition failed")
		return nil, err
	}

	if cert != nil && len(cert.Certificate) > 0 {
		if leaf, perr := x509.ParseCertificate(cert.Certificate[0]); perr == nil {
			p.logger.Debug().
				Str("domain", domain).
				Str("issuer", leaf.Issuer.CommonName).
				Time("not_after", leaf.NotAfter).
				Msg("certificate served")
		}
	}
	return cert, nil
}

func (p *ACMEProvider) hostPolicy(_ context.Context, host string) error {
	p.mu.RLock()
	domains := p.domains
	p.mu.RUnlock()

	if len(domains) == 0 {
		return nil
	}
	for _, d := range domains {
		if d == host {
			return nil
		}
		if strings.HasPrefix(d, "*.") {
			suffix := d[1:]
			if len(host) > len(suffix) && strings.HasSuffix(host, suffix) {
				return nil
			}
		}
	}
	return fmt.Errorf("host %q not in allowed domains", host)
}

// UpdateDomains replaces the allowed host list.
func (p *ACMEProvider) UpdateDomains(domains []string) {
	p.mu.Lock()
	p.domains = domains
	p.mu.Unlock()
	p.logger.Info().Strs("domains", domains).Msg("acme domains updated")
}

// RateLimitedUntil reports whether domain is in a rate-limit backoff.
func (p *ACMEProvider) RateLimitedUntil(domain string) (time.Time, bool) {
	p.rateLimitMu.RLock()
	defer p.rateLimitMu.RUnlock()
	until, ok := p.rateLimitUntil[domain]
	if !ok || !p.now().Before(until) {
		return time.Time{}, false
	}
	return until, true
}

// ClearRateLimit drops the backoff for domain.
func (p *ACMEProvider) ClearRateLimit(domain string) {
	p.rateLimitMu.Lock()
	delete(p.rateLimitUntil, domain)
	p.rateLimitMu.Unlock()
}

var retryAfterPattern = regexp.MustCompile(`retry after (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) UTC`)

// parseRetryAfter reads "retry after YYYY-MM-DD HH:MM:SS UTC" out of an
// ACME error, defaulting to one hour from now.
func (p *ACMEProvider) parseRetryAfter(msg string) time.Time {
	if m := retryAfterPattern.FindStringSubmatch(msg); len(m) == 2 {
		if t, err := time.Parse("2006-01-02 15:04:05", m[1]); err == nil {
			return t.UTC()
		}
	}
	return p.now().Add(time.Hour)
}
