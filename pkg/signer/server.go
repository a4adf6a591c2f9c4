package signer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// maxSignRequestBytes bounds the body accepted by the signing handler.
const maxSignRequestBytes = 16 << 10

// NewHandler serves the signing service protocol consumed by RemoteSigner:
// POST {"url": ...} returns {"signature": ..., "token": ..., "verifyFp": ...}.
func NewHandler(s Signer, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxSignRequestBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
			return
		}

		var req SignRequest
		if err := json.Unmarshal(body, &req); err != nil || req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"url\": \"...\"}"})
			return
		}
		if _, err := url.ParseRequestURI(req.URL); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is not absolute"})
			return
		}

		sig, err := s.Sign(r.Context(), req.URL)
		if err != nil || sig.Value == "" {
			logger.Error().Err(err).Str("url", req.URL).Msg("Signing request failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "signer unavailable"})
			return
		}

		writeJSON(w, http.StatusOK, SignResponse{
			Signature: sig.Value,
			Token:     sig.VerifyFp,
			VerifyFp:  sig.VerifyFp,
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
