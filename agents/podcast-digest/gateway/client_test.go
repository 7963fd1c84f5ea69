package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"podbrief/shared/config"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type fakeGateway struct {
	searchText    string
	searchErr     string
	transcripts   map[string][]string
	transcriptErr string
	searchCalls   int
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func textResult(blocks ...string) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(blocks))
	for _, b := range blocks {
		content = append(content, &mcp.TextContent{Text: b})
	}
	return &mcp.CallToolResult{Content: content}
}

func toolError(msg string) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(errors.New(msg))
	return &res
}

func connectFake(t *testing.T, fg *fakeGateway) *Client {
	t.Helper()

	srv := mcp.NewServer(&mcp.Implementation{Name: "fake-gateway", Version: "0.1.0"}, nil)

	srv.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Search the web",
		InputSchema: inputSchema(map[string]any{
			"query":       map[string]any{"type": "string"},
			"max_results": map[string]any{"type": "integer"},
		}, []string{"query"}),
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fg.searchCalls++
		if fg.searchErr != "" {
			return toolError(fg.searchErr), nil
		}
		return textResult(fg.searchText), nil
	})

	srv.AddTool(&mcp.Tool{
		Name:        "get_transcript",
		Description: "Fetch a video transcript",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string"},
		}, []string{"url"}),
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if fg.transcriptErr != "" {
			return toolError(fg.transcriptErr), nil
		}
		var args struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError("bad arguments"), nil
		}
		return textResult(fg.transcripts[args.URL]...), nil
	})

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	cfg := &config.Config{Gateway: config.GatewayConfig{Endpoint: "inmemory"}}
	client := NewClient(cfg)
	if err := client.connect(ctx, clientT); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantURLs   []string
		wantTitles []string
	}{
		{
			name: "mixed result lines",
			text: "Results:\n" +
				"1. Sam Altman on AGI - https://www.youtube.com/watch?v=abc123\n" +
				"2. Conference talk - https://vimeo.com/999\n" +
				"3. Lex Fridman #419 | https://youtube.com/watch?v=def456\n" +
				"no links here",
			wantURLs:   []string{"https://www.youtube.com/watch?v=abc123", "https://youtube.com/watch?v=def456"},
			wantTitles: []string{"1. Sam Altman on AGI", "3. Lex Fridman #419"},
		},
		{
			name: "duplicate urls collapse",
			text: "First - https://www.youtube.com/watch?v=same\n" +
				"Second - https://www.youtube.com/watch?v=same",
			wantURLs:   []string{"https://www.youtube.com/watch?v=same"},
			wantTitles: []string{"First"},
		},
		{
			name:       "mixed case host still matches",
			text:       "Interview https://www.YouTube.com/Watch?v=q1",
			wantURLs:   []string{"https://www.YouTube.com/Watch?v=q1"},
			wantTitles: []string{"Interview"},
		},
		{
			name:       "bare url uses url as title",
			text:       "https://www.youtube.com/watch?v=solo",
			wantURLs:   []string{"https://www.youtube.com/watch?v=solo"},
			wantTitles: []string{"https://www.youtube.com/watch?v=solo"},
		},
		{
			name:     "no youtube results",
			text:     "1. Some blog post - https://example.com/post\n2. Plain text",
			wantURLs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCandidates(tt.text)
			if len(got) != len(tt.wantURLs) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.wantURLs))
			}
			for i, c := range got {
				if c.URL != tt.wantURLs[i] {
					t.Errorf("candidate %d URL = %q, want %q", i, c.URL, tt.wantURLs[i])
				}
				if c.Title != tt.wantTitles[i] {
					t.Errorf("candidate %d Title = %q, want %q", i, c.Title, tt.wantTitles[i])
				}
			}
		})
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123", "abc123"},
		{"https://youtube.com/watch?v=def&t=42s", "def"},
		{"https://youtu.be/short", "https://youtu.be/short"},
	}
	for _, tt := range tests {
		if got := videoID(tt.url); got != tt.want {
			t.Errorf("videoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSearch(t *testing.T) {
	fg := &fakeGateway{
		searchText: "Sam Altman interview - https://www.youtube.com/watch?v=one\n" +
			"Sam Altman keynote - https://www.youtube.com/watch?v=two",
	}
	client := connectFake(t, fg)

	candidates, err := client.Search(context.Background(), "Sam Altman YouTube podcast", 15)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].ID != "one" || candidates[1].ID != "two" {
		t.Errorf("unexpected IDs: %q, %q", candidates[0].ID, candidates[1].ID)
	}
}

func TestSearch_EmptyResults(t *testing.T) {
	fg := &fakeGateway{searchText: "Nothing relevant found."}
	client := connectFake(t, fg)

	candidates, err := client.Search(context.Background(), "nobody", 15)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestSearch_ToolError(t *testing.T) {
	fg := &fakeGateway{searchErr: "rate limited"}
	client := connectFake(t, fg)

	if _, err := client.Search(context.Background(), "anyone", 15); err == nil {
		t.Fatal("expected error from failing search tool")
	}
}

func TestSearch_NonPositiveMaxResults(t *testing.T) {
	fg := &fakeGateway{searchText: "should never be fetched"}
	client := connectFake(t, fg)

	candidates, err := client.Search(context.Background(), "anyone", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
	if fg.searchCalls != 0 {
		t.Errorf("search tool was called %d times, want 0", fg.searchCalls)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := connectFake(t, &fakeGateway{})

	if _, err := client.Search(context.Background(), "   ", 15); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestFetchTranscript(t *testing.T) {
	url := "https://www.youtube.com/watch?v=abc"
	fg := &fakeGateway{
		transcripts: map[string][]string{
			url: {"first part. ", "second part."},
		},
	}
	client := connectFake(t, fg)

	transcript, err := client.FetchTranscript(context.Background(), url)
	if err != nil {
		t.Fatalf("FetchTranscript: %v", err)
	}
	if transcript != "first part. second part." {
		t.Errorf("transcript = %q, want concatenated blocks", transcript)
	}
}

func TestFetchTranscript_Empty(t *testing.T) {
	fg := &fakeGateway{transcripts: map[string][]string{}}
	client := connectFake(t, fg)

	_, err := client.FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=missing")
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("got %v, want ErrEmptyTranscript", err)
	}
}

func TestFetchTranscript_ToolError(t *testing.T) {
	fg := &fakeGateway{transcriptErr: "no captions available"}
	client := connectFake(t, fg)

	if _, err := client.FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=x"); err == nil {
		t.Fatal("expected error from failing transcript tool")
	}
}

func TestListToolNames(t *testing.T) {
	client := connectFake(t, &fakeGateway{})

	names, err := client.ListToolNames(context.Background())
	if err != nil {
		t.Fatalf("ListToolNames: %v", err)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["search"] || !found["get_transcript"] {
		t.Errorf("tool names = %v, want search and get_transcript", names)
	}
}

func TestVerifyTools(t *testing.T) {
	client := connectFake(t, &fakeGateway{})

	if err := client.VerifyTools(context.Background(), []string{"search", "get_transcript"}); err != nil {
		t.Errorf("VerifyTools with available tools: %v", err)
	}

	err := client.VerifyTools(context.Background(), []string{"search", "youtube_transcript"})
	if err == nil {
		t.Fatal("expected error for missing tool")
	}
	if !strings.Contains(err.Error(), "youtube_transcript") {
		t.Errorf("error should name the missing tool, got: %v", err)
	}
}

func TestPing(t *testing.T) {
	client := connectFake(t, &fakeGateway{})

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestHealthcheck(t *testing.T) {
	client := connectFake(t, &fakeGateway{})

	if err := client.Healthcheck(context.Background(), []string{"search", "get_transcript"}); err != nil {
		t.Errorf("Healthcheck with available tools: %v", err)
	}

	err := client.Healthcheck(context.Background(), []string{"search", "browse"})
	if err == nil {
		t.Fatal("expected error for missing tool")
	}
	if !strings.Contains(err.Error(), "browse") {
		t.Errorf("error should name the missing tool, got: %v", err)
	}
}

func TestNotConnected(t *testing.T) {
	cfg := &config.Config{Gateway: config.GatewayConfig{Endpoint: "http://localhost:9"}}
	client := NewClient(cfg)

	if _, err := client.Search(context.Background(), "anyone", 5); err == nil {
		t.Error("Search before Connect should fail")
	}
	if _, err := client.FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=x"); err == nil {
		t.Error("FetchTranscript before Connect should fail")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping before Connect should fail")
	}
}
