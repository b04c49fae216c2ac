package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alnah/go-contentflow/internal/apierr"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/generate"
	"github.com/alnah/go-contentflow/internal/llm"
	"github.com/alnah/go-contentflow/internal/platform"
	"github.com/alnah/go-contentflow/internal/prompt"
)

// ---------------------------------------------------------------------------
// TestParseRequest
// ---------------------------------------------------------------------------

func TestParseRequest(t *testing.T) {
	t.Parallel()

	valid := generate.RawRequest{
		Topic:          "Async standups",
		Tone:           "Friendly",
		TargetAudience: "engineering managers",
		Platform:       "linkedin",
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		req, err := generate.ParseRequest(valid)
		if err != nil {
			t.Fatalf("ParseRequest() error: %v", err)
		}
		if req.Platform != platform.LinkedIn || req.Tone != platform.Friendly {
			t.Errorf("req = %+v", req)
		}
	})

	t.Run("contentType alias", func(t *testing.T) {
		t.Parallel()

		raw := valid
		raw.Platform = ""
		raw.ContentType = "twitter"
		req, err := generate.ParseRequest(raw)
		if err != nil {
			t.Fatalf("ParseRequest() error: %v", err)
		}
		if req.Platform != platform.Twitter {
			t.Errorf("Platform = %v, want twitter", req.Platform)
		}
	})

	rejects := map[string]func(*generate.RawRequest){
		"missing topic":     func(r *generate.RawRequest) { r.Topic = "" },
		"missing audience":  func(r *generate.RawRequest) { r.TargetAudience = " " },
		"missing platform":  func(r *generate.RawRequest) { r.Platform = "" },
		"unknown platform":  func(r *generate.RawRequest) { r.Platform = "myspace" },
		"recycling only":    func(r *generate.RawRequest) { r.Platform = "quotes" },
		"unknown tone":      func(r *generate.RawRequest) { r.Tone = "sarcastic" },
		"missing tone only": func(r *generate.RawRequest) { r.Tone = "" },
	}
	for name, mutate := range rejects {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			raw := valid
			mutate(&raw)
			if _, err := generate.ParseRequest(raw); !errors.Is(err, prompt.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGenerator
// ---------------------------------------------------------------------------

func sseServer(t *testing.T, handler http.HandlerFunc) *llm.OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := llm.NewOpenAIClient("test-key", llm.WithBaseURL(srv.URL+"/v1"), llm.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewOpenAIClient() error: %v", err)
	}
	return c
}

func streamChunks(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			b, _ := json.Marshal(map[string]any{
				"object":  "chat.completion.chunk",
				"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": c}}},
			})
			_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
		}
		_, _ = io.WriteString(w, `data: {"object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}
}

var validRequest = generate.Request{
	Topic:          "Async standups",
	Tone:           platform.Professional,
	TargetAudience: "managers",
	Platform:       platform.LinkedIn,
}

func TestGenerator_RecordsCostAfterCompletion(t *testing.T) {
	t.Parallel()

	client := sseServer(t, streamChunks("Async ", "standups ", "work."))
	ledger := cost.NewLedger(nil)
	g := generate.New(client, generate.WithLedger(ledger))
	rec := &recorder{}

	res, err := g.Generate(context.Background(), validRequest, rec.emit)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.Text != "Async standups work." {
		t.Errorf("Text = %q", res.Text)
	}
	// "Async standups managers " is 24 characters.
	if res.InputTokens != 6 {
		t.Errorf("InputTokens = %d, want 6", res.InputTokens)
	}
	if res.Cost.Model != llm.DefaultModel {
		t.Errorf("Cost.Model = %q, want %q", res.Cost.Model, llm.DefaultModel)
	}

	summary, err := ledger.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	if summary.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", summary.RequestCount)
	}
}

func TestGenerator_ProviderFailureIsEmittedAndNotRecorded(t *testing.T) {
	t.Parallel()

	client := sseServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down"}}`)
	})
	ledger := cost.NewLedger(nil)
	g := generate.New(client, generate.WithLedger(ledger))
	rec := &recorder{}

	_, err := g.Generate(context.Background(), validRequest, rec.emit)
	if !errors.Is(err, apierr.ErrRateLimit) {
		t.Fatalf("Generate() error = %v, want ErrRateLimit", err)
	}
	if len(rec.updates) != 1 || rec.updates[0].Kind != generate.UpdateFailure {
		t.Errorf("updates = %v, want a single failure", rec.kinds())
	}

	summary, _ := ledger.Summary(context.Background())
	if summary.RequestCount != 0 {
		t.Errorf("RequestCount = %d, want 0 after failure", summary.RequestCount)
	}
}

func TestGenerator_ValidationBeforeAnyCall(t *testing.T) {
	t.Parallel()

	called := false
	client := sseServer(t, func(http.ResponseWriter, *http.Request) { called = true })
	g := generate.New(client)
	rec := &recorder{}

	req := validRequest
	req.Platform = platform.Email
	if _, err := g.Generate(context.Background(), req, rec.emit); !errors.Is(err, prompt.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	if called || len(rec.updates) != 0 {
		t.Error("nothing should be sent or emitted for an invalid request")
	}
}

func TestGenerator_UnpricedModelIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(streamChunks("x"))
	t.Cleanup(srv.Close)
	client, err := llm.NewOpenAIClient("k", llm.WithBaseURL(srv.URL+"/v1"), llm.WithModel("gpt-unpriced"))
	if err != nil {
		t.Fatalf("NewOpenAIClient() error: %v", err)
	}

	_, err = generate.New(client).Generate(context.Background(), validRequest, (&recorder{}).emit)
	if !errors.Is(err, cost.ErrUnknownModel) {
		t.Errorf("error = %v, want ErrUnknownModel", err)
	}
}
