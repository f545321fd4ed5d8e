package postproc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatRewriterSendsPrompt(t *testing.T) {
	var gotBody chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"choices":[{"message":{"content":"  Fixed text.  "}}]}`))
	}))
	defer srv.Close()

	rw := &ChatRewriter{client: srv.Client(), apiURL: srv.URL, apiKey: "k", model: "m"}
	out, err := rw.Rewrite(context.Background(), "Fix grammar", "raw words")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if out != "Fixed text." {
		t.Errorf("output = %q, want trimmed content", out)
	}
	if gotAuth != "Bearer k" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(gotBody.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(gotBody.Messages))
	}
	prompt := gotBody.Messages[0].Content
	if !strings.HasPrefix(prompt, "Fix grammar\n\nTranscript:\nraw words") {
		t.Errorf("prompt missing instruction/transcript framing: %q", prompt)
	}
	if !strings.Contains(prompt, "Respond ONLY with the processed text") {
		t.Errorf("prompt missing response directive: %q", prompt)
	}
}

func TestChatRewriterAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	rw := &ChatRewriter{client: srv.Client(), apiURL: srv.URL, apiKey: "k", model: "m"}
	if _, err := rw.Rewrite(context.Background(), "fix", "text"); err == nil {
		t.Error("expected error on 429")
	}
}

func TestChatRewriterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	rw := &ChatRewriter{client: srv.Client(), apiURL: srv.URL, apiKey: "k", model: "m"}
	if _, err := rw.Rewrite(context.Background(), "fix", "text"); err == nil {
		t.Error("expected error on empty choices")
	}
}

func TestNewProviderSelection(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv("OPENAI_API_KEY", "ok")
	if rw := New(); rw == nil || rw.apiURL != groqChatURL {
		t.Error("with GROQ_API_KEY set, expected groq endpoint")
	}

	t.Setenv("GROQ_API_KEY", "")
	if rw := New(); rw == nil || rw.apiURL != openaiChatURL {
		t.Error("with only OPENAI_API_KEY, expected openai endpoint")
	}

	t.Setenv("OPENAI_API_KEY", "")
	if rw := New(); rw != nil {
		t.Error("with no keys, expected nil rewriter")
	}
}

func TestFakeCountsCalls(t *testing.T) {
	f := NewFake("out", nil)
	f.Rewrite(context.Background(), "i", "t")
	f.Rewrite(context.Background(), "i", "t")
	if f.Calls() != 2 {
		t.Errorf("calls = %d, want 2", f.Calls())
	}
}
