// Package tls provisions certificates for serve --domain through ACME
package tls

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

// AutoCertManager obtains and renews Let's Encrypt certificates for one host
type AutoCertManager struct {
	manager *autocert.Manager
	domain  string
	logger  *zap.Logger
}

// NewAutoCertManager creates a manager for domain caching certificates in cacheDir.
// An empty cacheDir uses DefaultCacheDir.
func NewAutoCertManager(domain, cacheDir, email string, logger *zap.Logger) *AutoCertManager {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}

	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domain),
		Cache:      autocert.DirCache(cacheDir),
		Email:      email,
	}

	logger.Info("AutoTLS enabled",
		zap.String("domain", domain),
		zap.String("cache_dir", cacheDir),
	)

	return &AutoCertManager{
		manager: m,
		domain:  domain,
		logger:  logger,
	}
}

// Domain returns the host certificates are issued for
func (a *AutoCertManager) Domain() string {
	return a.domain
}

// AllowHost reports whether host may be served
func (a *AutoCertManager) AllowHost(ctx context.Context, host string) bool {
	return a.manager.HostPolicy(ctx, host) == nil
}

// TLSConfig returns a server config that fetches certificates on demand
func (a *AutoCertManager) TLSConfig() *tls.Config {
	cfg := a.manager.TLSConfig()
	cfg.MinVersion = tls.VersionTLS12
	cfg.GetCertificate = a.GetCertificate
	return cfg
}

// HTTPHandler answers ACME challenges and passes everything else to fallback.
// A nil fallback redirects to https.
func (a *AutoCertManager) HTTPHandler(fallback http.Handler) http.Handler {
	return a.manager.HTTPHandler(fallback)
}

// GetCertificate gets a certificate for the given ClientHelloInfo
func (a *AutoCertManager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert, err := a.manager.GetCertificate(hello)
	if err != nil {
		a.logger.Error("Failed to get certificate",
			zap.String("server_name", hello.ServerName),
			zap.Error(err),
		)
		return nil, err
	}

	a.logger.Debug("Certificate obtained",
		zap.String("server_name", hello.ServerName),
	)

	return cert, nil
}

// DefaultCacheDir returns ~/.pooledlist/certs
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".pooledlist", "certs")
}
