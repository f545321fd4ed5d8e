package postproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	openaiChatURL = "https://api.openai.com/v1/chat/completions"
	groqChatURL   = "https://api.groq.com/openai/v1/chat/completions"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatRewriter rewrites transcripts through an OpenAI-compatible chat
// completions endpoint.
type ChatRewriter struct {
	client *http.Client
	apiURL string
	apiKey string
	model  string
}

// New picks a chat endpoint matching the available credentials: Groq with
// GROQ_API_KEY, otherwise OpenAI with OPENAI_API_KEY. Returns nil when
// neither is set; the caller treats a nil Rewriter as rewrite disabled.
func New() *ChatRewriter {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return &ChatRewriter{
			client: &http.Client{},
			apiURL: groqChatURL,
			apiKey: key,
			model:  "llama-3.3-70b-versatile",
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return &ChatRewriter{
			client: &http.Client{},
			apiURL: openaiChatURL,
			apiKey: key,
			model:  "gpt-4o-mini",
		}
	}
	return nil
}

func (c *ChatRewriter) Rewrite(ctx context.Context, instruction, transcript string) (string, error) {
	prompt := fmt.Sprintf(
		"%s\n\nTranscript:\n%s\n\nRespond ONLY with the processed text, nothing else.",
		instruction, transcript)

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error: %d - %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
