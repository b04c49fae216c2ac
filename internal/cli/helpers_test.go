package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/config"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/llm"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// Fakes for the Env factories
// ---------------------------------------------------------------------------

type fakeConfigLoader struct {
	cfg   config.Config
	err   error
	files []string
}

func (f *fakeConfigLoader) Load(file string) (config.Config, error) {
	f.files = append(f.files, file)
	return f.cfg, f.err
}

// providerClientFactory builds a real OpenAI client pointed at a test server.
type providerClientFactory struct {
	srv   *httptest.Server
	model string
	err   error
}

func (f *providerClientFactory) NewClient(cfg config.Config, log *zap.Logger) (llm.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	model := f.model
	if model == "" {
		model = cfg.Model()
	}
	c, err := llm.NewOpenAIClient("test-key",
		llm.WithModel(model),
		llm.WithBaseURL(f.srv.URL+"/v1"),
		llm.WithHTTPClient(f.srv.Client()),
		llm.WithMaxRetries(0),
		llm.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return c, nil
}

type memoryLedgerFactory struct {
	ledger *cost.Ledger
	err    error

	mu     sync.Mutex
	closed int
}

func (f *memoryLedgerFactory) NewLedger(context.Context, config.Config) (*cost.Ledger, func() error, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.ledger, func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.closed++
		return nil
	}, nil
}

func (f *memoryLedgerFactory) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type nopLoggerFactory struct{}

func (nopLoggerFactory) NewLogger(config.LogConfig) (*zap.Logger, error) {
	return zap.NewNop(), nil
}

// ---------------------------------------------------------------------------
// Fake provider - speaks the chat completion protocol
// ---------------------------------------------------------------------------

// providerRequest is the part of a chat completion request the fake reads.
type providerRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func (r providerRequest) prompt() string {
	var sb strings.Builder
	for _, m := range r.Messages {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []providerRequest

	// deltas are streamed in order for streaming calls.
	deltas []string
	// reply answers single-shot calls.
	reply func(req providerRequest) (status int, body string)
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	reply := f.reply
	f.mu.Unlock()

	if req.Stream {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, d := range f.deltas {
			writeChunk(w, req.Model, d)
		}
		writeFinish(w, req.Model)
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
		return
	}

	status, body := http.StatusOK, `{"content":"Recycled post"}`
	if reply != nil {
		status, body = reply(req)
	}
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"error":{"message":%q,"type":"test_error"}}`, body)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   req.Model,
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": body}, "finish_reason": "stop"}},
		"usage":   map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
	})
}

func (f *fakeProvider) setReply(reply func(req providerRequest) (int, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = reply
}

func (f *fakeProvider) calls() []providerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providerRequest(nil), f.requests...)
}

func writeChunk(w http.ResponseWriter, model, content string) {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"model":   model,
		"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": content}}},
	})
	_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

func writeFinish(w http.ResponseWriter, model string) {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"model":   model,
		"choices": []map[string]any{{"index": 0, "delta": map[string]any{}, "finish_reason": "stop"}},
	})
	_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
}

// ---------------------------------------------------------------------------
// testEnv - an Env wired to the fakes
// ---------------------------------------------------------------------------

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type testFixture struct {
	env      *Env
	stdout   *syncBuffer
	stderr   *syncBuffer
	provider *fakeProvider
	loader   *fakeConfigLoader
	ledgers  *memoryLedgerFactory
	clients  *providerClientFactory
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{Env: config.EnvDevelopment, Language: "en"},
		LLM: config.LLMConfig{APIKey: "test-key", ModelDev: "gpt-4o-mini", ModelProd: "gpt-4o"},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	fp := &fakeProvider{deltas: []string{"Hello", " world"}}
	srv := httptest.NewServer(fp)
	t.Cleanup(srv.Close)

	f := &testFixture{
		stdout:   &syncBuffer{},
		stderr:   &syncBuffer{},
		provider: fp,
		loader:   &fakeConfigLoader{cfg: testConfig()},
		ledgers: &memoryLedgerFactory{ledger: cost.NewLedger(cost.NewMemoryStore(),
			cost.WithLedgerClock(func() time.Time { return testNow }),
			cost.WithLocation(time.UTC),
			cost.WithThresholds(cost.DevelopmentThresholds))},
		clients: &providerClientFactory{srv: srv},
	}
	f.env = NewEnv(
		WithStdin(strings.NewReader("")),
		WithStdout(f.stdout),
		WithStderr(f.stderr),
		WithNow(func() time.Time { return testNow }),
		WithConfigLoader(f.loader),
		WithClientFactory(f.clients),
		WithLedgerFactory(f.ledgers),
		WithLoggerFactory(nopLoggerFactory{}),
	)
	return f
}

// daySummary reads the fixture ledger for the fixed test day.
func (f *testFixture) daySummary(t *testing.T) cost.DaySummary {
	t.Helper()
	s, err := f.ledgers.ledger.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	return s
}
