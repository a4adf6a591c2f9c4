package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tikstock/tiktok-go/pkg/signer"
)

// MockSigner issues sequential signatures. Set Err to make every call fail.
type MockSigner struct {
	mu    sync.Mutex
	calls int
	Token string
	Err   error
}

// NewMockSigner returns a signer issuing sig-1, sig-2, ... with token verify_test.
func NewMockSigner() *MockSigner {
	return &MockSigner{Token: "verify_test"}
}

// Sign implements signer.Signer.
func (s *MockSigner) Sign(_ context.Context, _ string) (signer.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.Err != nil {
		return signer.Signature{}, s.Err
	}
	return signer.Signature{Value: fmt.Sprintf("sig-%d", s.calls), VerifyFp: s.Token}, nil
}

// Calls returns the number of Sign calls.
func (s *MockSigner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// NewSigningService starts a remote signing service backed by s.
func NewSigningService(s signer.Signer) *httptest.Server {
	return httptest.NewServer(signer.NewHandler(s, zerolog.Nop()))
}
