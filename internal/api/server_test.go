package api

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewServer(t *testing.T) {
	srv := NewServer(":9999", http.NotFoundHandler(), 5*time.Second, 20*time.Second)

	if srv.Addr != ":9999" {
		t.Errorf("Expected addr ':9999', got %q", srv.Addr)
	}
	if srv.ReadTimeout != 5*time.Second || srv.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("Unexpected read timeouts: %s / %s", srv.ReadTimeout, srv.ReadHeaderTimeout)
	}
	if srv.WriteTimeout != 20*time.Second {
		t.Errorf("Expected write timeout 20s, got %s", srv.WriteTimeout)
	}
}

func TestHandlerTimeout(t *testing.T) {
	tests := []struct {
		write time.Duration
		want  time.Duration
	}{
		{0, 0},
		{-time.Second, 0},
		{10 * time.Second, 9 * time.Second},
		{60 * time.Second, 55 * time.Second},
		{5 * time.Minute, 5*time.Minute - 5*time.Second},
	}

	for _, tt := range tests {
		got := HandlerTimeout(tt.write)
		if got != tt.want {
			t.Errorf("HandlerTimeout(%s) = %s, want %s", tt.write, got, tt.want)
		}
		if tt.write > 0 && got >= tt.write {
			t.Errorf("HandlerTimeout(%s) = %s, must be below the write timeout", tt.write, got)
		}
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer("127.0.0.1:0", NewRouter(&fakeService{}, zerolog.Nop(), time.Second), time.Second, time.Second)

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, srv, zerolog.Nop(), func(addr string) { addrCh <- addr })
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("Serve() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %q", body)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Server did not shut down")
	}
}

func TestServe_ListenError(t *testing.T) {
	srv := NewServer("256.0.0.1:80", http.NotFoundHandler(), time.Second, time.Second)

	if err := Serve(context.Background(), srv, zerolog.Nop(), nil); err == nil {
		t.Error("Expected listen error for invalid address")
	}
}
