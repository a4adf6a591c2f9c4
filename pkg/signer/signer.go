// Package signer obtains the signature and verification token TikTok requires
// on every API request, either from a remote signing service or from a local
// headless browser.
package signer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for signing operations.
var (
	signRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktok_sign_requests_total",
		Help: "Total signing calls by signer mode and result",
	}, []string{"mode", "result"})

	signDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiktok_sign_duration_seconds",
		Help:    "Signing latency in seconds by signer mode",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"mode"})
)

// Signer modes.
const (
	ModeRemote  = "remote"
	ModeBrowser = "browser"
	ModeCustom  = "custom"
)

// Query parameters carrying the credentials.
const (
	ParamSignature = "_signature"
	ParamVerifyFp  = "verifyFp"
)

// ErrSignatureUnavailable is returned when no signature could be produced,
// because the signing dependency is missing, unreachable or returned garbage.
var ErrSignatureUnavailable = errors.New("signature unavailable")

// unavailableHint is attached to every signing failure so callers can tell it
// apart from a missing resource further downstream.
const unavailableHint = "could not sign an API URL; the signature service is not " +
	"responding or no local browser signer is installed"

// Signature is the credential pair for one request URL.
type Signature struct {
	// Value is appended as the _signature query parameter.
	Value string

	// VerifyFp is the verification token. Optional; omitted from the URL when empty.
	VerifyFp string
}

// Signer produces a Signature for an unsigned request URL.
type Signer interface {
	Sign(ctx context.Context, rawURL string) (Signature, error)
}

// moder is implemented by signers that report their mode for metrics.
type moder interface {
	Mode() string
}

// Adapter signs URLs with a single Signer chosen at construction.
type Adapter struct {
	signer Signer
	mode   string
	logger zerolog.Logger
}

// NewAdapter wraps s. The mode label is taken from s when it reports one.
func NewAdapter(s Signer, logger zerolog.Logger) *Adapter {
	mode := ModeCustom
	if m, ok := s.(moder); ok {
		mode = m.Mode()
	}
	return &Adapter{
		signer: s,
		mode:   mode,
		logger: logger,
	}
}

// Mode returns the mode of the wrapped signer.
func (a *Adapter) Mode() string {
	return a.mode
}

// SignURL returns rawURL with the signature and, when available, the
// verification token appended. Every error wraps ErrSignatureUnavailable.
func (a *Adapter) SignURL(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()
	sig, err := a.signer.Sign(ctx, rawURL)
	signDuration.WithLabelValues(a.mode).Observe(time.Since(start).Seconds())

	if err == nil && sig.Value == "" {
		err = errors.New("empty signature")
	}
	if err != nil {
		signRequestsTotal.WithLabelValues(a.mode, "error").Inc()
		a.logger.Error().Err(err).Str("mode", a.mode).Msg("Signing failed")
		if errors.Is(err, ErrSignatureUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %v", ErrSignatureUnavailable, unavailableHint, err)
	}

	signRequestsTotal.WithLabelValues(a.mode, "ok").Inc()
	a.logger.Debug().
		Str("mode", a.mode).
		Bool("verify_fp", sig.VerifyFp != "").
		Dur("duration", time.Since(start)).
		Msg("URL signed")

	return AppendSignature(rawURL, sig), nil
}

// AppendSignature appends the credential query parameters to rawURL.
func AppendSignature(rawURL string, sig Signature) string {
	var b strings.Builder
	b.WriteString(rawURL)

	switch {
	case !strings.Contains(rawURL, "?"):
		b.WriteByte('?')
	case strings.HasSuffix(rawURL, "?"), strings.HasSuffix(rawURL, "&"):
	default:
		b.WriteByte('&')
	}

	b.WriteString(ParamSignature)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(sig.Value))

	if sig.VerifyFp != "" {
		b.WriteByte('&')
		b.WriteString(ParamVerifyFp)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(sig.VerifyFp))
	}

	return b.String()
}
