package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SignRequest is the JSON body sent to a signing service.
type SignRequest struct {
	URL string `json:"url"`
}

// SignResponse is the JSON body returned by a signing service. Services differ
// in the name of the verification token field, so both are accepted.
type SignResponse struct {
	Signature string `json:"signature"`
	Token     string `json:"token,omitempty"`
	VerifyFp  string `json:"verifyFp,omitempty"`
}

// verificationToken returns whichever token field the service filled in.
func (r SignResponse) verificationToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.VerifyFp
}

// maxSignResponseBytes bounds the signing service response body.
const maxSignResponseBytes = 64 << 10

// RemoteSigner delegates signing to an HTTP signing service.
type RemoteSigner struct {
	endpoint   string
	httpClient *http.Client
}

// NewRemoteSigner creates a signer posting to endpoint. A nil httpClient gets
// a client with a 10 second timeout.
func NewRemoteSigner(endpoint string, httpClient *http.Client) (*RemoteSigner, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse signature service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("signature service url must be http or https (got %q)", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("signature service url has no host: %q", endpoint)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &RemoteSigner{
		endpoint:   endpoint,
		httpClient: httpClient,
	}, nil
}

// Mode implements moder.
func (r *RemoteSigner) Mode() string {
	return ModeRemote
}

// Sign posts rawURL to the signing service and returns its credential pair.
func (r *RemoteSigner) Sign(ctx context.Context, rawURL string) (Signature, error) {
	payload, err := json.Marshal(SignRequest{URL: rawURL})
	if err != nil {
		return Signature{}, fmt.Errorf("marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Signature{}, fmt.Errorf("create sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %s: %v", ErrSignatureUnavailable, unavailableHint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSignResponseBytes))
	if err != nil {
		return Signature{}, fmt.Errorf("%w: read signature service response: %v", ErrSignatureUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Signature{}, fmt.Errorf("%w: %s: signature service returned status %d",
			ErrSignatureUnavailable, unavailableHint, resp.StatusCode)
	}

	var sr SignResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Signature{}, fmt.Errorf("%w: malformed signature service response: %v", ErrSignatureUnavailable, err)
	}
	if sr.Signature == "" {
		return Signature{}, fmt.Errorf("%w: signature service response has no signature", ErrSignatureUnavailable)
	}

	return Signature{
		Value:    sr.Signature,
		VerifyFp: sr.verificationToken(),
	}, nil
}
