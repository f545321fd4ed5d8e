// Package transcriber converts a finished audio buffer into text through a
// remote speech API. Calls are cancellable through the request context;
// failures carry a kind so the pipeline can tell transient network trouble
// from bad credentials from its own cancellation.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Request is consumed by a single Transcribe call; retries build a new one.
type Request struct {
	Audio      []byte // encoded audio, ready for upload
	Format     string // "flac" or "wav"
	SampleRate int
	Language   string // language code, empty for auto-detect
}

type Result struct {
	Text      string
	Duration  float64 // audio length as reported by the API, seconds
	RateLimit string  // "remaining/limit" or empty
	Metrics   *NetworkMetrics
}

type FailKind int

const (
	KindNetwork FailKind = iota
	KindAuth
	KindCancelled
)

func (k FailKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindCancelled:
		return "cancelled"
	}
	return "network"
}

// Error is a typed remote-call failure.
type Error struct {
	Kind FailKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies any error returned by Transcribe. Context cancellation
// wins over everything else: a cancelled call is never a user-visible
// failure.
func KindOf(err error) FailKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindNetwork
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// New picks a provider from the environment: Groq if GROQ_API_KEY is set,
// otherwise OpenAI with OPENAI_API_KEY.
func New() (Transcriber, error) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key), nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return NewOpenAI(key), nil
	}
	return nil, fmt.Errorf("set GROQ_API_KEY or OPENAI_API_KEY environment variable")
}

// NewNamed picks an explicit provider; empty falls back to New.
func NewNamed(name string) (Transcriber, error) {
	switch name {
	case "":
		return New()
	case "groq":
		return NewGroq(os.Getenv("GROQ_API_KEY")), nil
	case "openai":
		return NewOpenAI(os.Getenv("OPENAI_API_KEY")), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", name)
	}
}

func classify(ctx context.Context, statusCode int, body []byte, err error) error {
	if err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindCancelled, Err: ctx.Err()}
		}
		return &Error{Kind: KindNetwork, Err: err}
	}
	switch statusCode {
	case 200:
		return nil
	case 401, 403:
		return &Error{Kind: KindAuth, Err: fmt.Errorf("API error %d: %s", statusCode, body)}
	default:
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("API error %d: %s", statusCode, body)}
	}
}
