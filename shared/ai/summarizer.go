package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podbrief/shared/config"
)

// Sentinel errors callers can test with errors.Is to tell connection
// problems apart from a model that answered with nothing.
var (
	ErrUnavailable   = errors.New("inference server unavailable")
	ErrTimeout       = errors.New("inference request timed out")
	ErrEmptyResponse = errors.New("inference server returned no usable text")
)

type Summary struct {
	Topics   string `json:"topics"`
	Insights string `json:"insights"`
}

type Summarizer struct {
	httpClient         *http.Client
	endpoint           string
	model              string
	maxTranscriptChars int
	maxTokens          int
	temperature        float64
}

func NewSummarizer(cfg *config.Config) *Summarizer {
	return &Summarizer{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		},
		endpoint:           strings.TrimRight(cfg.LLM.Endpoint, "/"),
		model:              cfg.LLM.Model,
		maxTranscriptChars: cfg.LLM.MaxTranscriptChars,
		maxTokens:          cfg.LLM.MaxTokens,
		temperature:        cfg.LLM.Temperature,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (*Summary, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript cannot be empty")
	}

	prompt := "Extract 3-5 topics (comma-separated) and 2 key insights (brief) from:\n\n" +
		clipRunes(transcript, s.maxTranscriptChars)

	content, err := s.complete(ctx, prompt, s.maxTokens)
	if err != nil {
		return nil, err
	}

	return parseSummaryResponse(content), nil
}

// Probe sends a minimal completion to confirm the server is up and
// actually answering, not just accepting connections.
func (s *Summarizer) Probe(ctx context.Context) error {
	_, err := s.complete(ctx, "Hi", 5)
	return err
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (s *Summarizer) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       s.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}

	return content, nil
}

// parseSummaryResponse pulls topics and insights out of a loosely
// formatted model reply. A line mentioning "topic" labels the next
// line; a line mentioning "insight" labels everything after it.
func parseSummaryResponse(content string) *Summary {
	topics := "General discussion"
	insights := "Various topics discussed"

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "topic") && i+1 < len(lines) {
			topics = clipRunes(strings.TrimSpace(lines[i+1]), 80)
		} else if strings.Contains(lower, "insight") && i+1 < len(lines) {
			insights = clipRunes(strings.Join(lines[i+1:], "\n"), 150)
		}
	}

	return &Summary{Topics: topics, Insights: insights}
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
