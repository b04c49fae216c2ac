package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-contentflow/internal/cost"
)

// Notes:
// - The fixture config is the development profile, so runServe leaves the
//   gin mode alone.
// - A free port is picked by binding :0 and closing; the server binds it
//   again right after.

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func waitHealthy(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s never became healthy", url)
}

func TestRunServe_ServesUntilCanceled(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t)
	port := freePort(t)
	base := "http://127.0.0.1:" + strconv.Itoa(port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, f.env, "127.0.0.1", port) }()

	waitHealthy(t, base+"/health")

	if _, err := f.ledgers.ledger.Append(context.Background(), cost.Breakdown{Model: "gpt-4o-mini", TotalCost: 1}); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get(base + "/api/costs/today")
	if err != nil {
		t.Fatalf("GET /api/costs/today: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("costs status = %d, want 200 with a ledger wired", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}

	if !strings.Contains(f.stderr.String(), "Listening on http://127.0.0.1:") {
		t.Errorf("stderr = %q", f.stderr.String())
	}
	if f.ledgers.closeCount() != 1 {
		t.Errorf("ledger closed %d times, want 1", f.ledgers.closeCount())
	}
}

func TestRunServe_RequiresClient(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t)
	f.clients.err = ErrAPIKeyMissing

	err := runServe(context.Background(), f.env, "127.0.0.1", freePort(t))
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("error = %v, want ErrAPIKeyMissing", err)
	}
}
