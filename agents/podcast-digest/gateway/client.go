package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"podbrief/internal/models"
	"podbrief/shared/config"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	ErrUnavailable     = errors.New("tool gateway unavailable")
	ErrEmptyTranscript = errors.New("gateway returned an empty transcript")
)

const (
	searchTool     = "search"
	transcriptTool = "get_transcript"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Client talks to the MCP tool gateway that fronts the search and
// transcript tool servers. Connect performs the full MCP initialize
// handshake; the session is then reused for every tool call.
type Client struct {
	endpoint string
	session  *mcp.ClientSession
}

func NewClient(cfg *config.Config) *Client {
	return &Client{endpoint: cfg.Gateway.Endpoint}
}

func (c *Client) Connect(ctx context.Context) error {
	return c.connect(ctx, &mcp.StreamableClientTransport{Endpoint: c.endpoint})
}

func (c *Client) connect(ctx context.Context, transport mcp.Transport) error {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "podbrief",
		Version: "1.0.0",
	}, nil)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return fmt.Errorf("%w: connect to %s: %v", ErrUnavailable, c.endpoint, err)
	}

	c.session = session
	return nil
}

// Search asks the gateway's search tool for videos matching query and
// keeps only results that point at a YouTube watch page. An empty
// result set is not an error. maxResults below 1 short-circuits to an
// empty set without touching the network.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]*models.VideoCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		return nil, nil
	}
	if c.session == nil {
		return nil, fmt.Errorf("gateway client not connected")
	}

	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name: searchTool,
		Arguments: map[string]any{
			"query":       query,
			"max_results": maxResults,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search call: %v", ErrUnavailable, err)
	}
	if res.IsError {
		return nil, fmt.Errorf("search tool failed: %s", textContent(res))
	}

	return extractCandidates(textContent(res)), nil
}

// FetchTranscript pulls the transcript for one video URL through the
// gateway's transcript tool.
func (c *Client) FetchTranscript(ctx context.Context, videoURL string) (string, error) {
	if strings.TrimSpace(videoURL) == "" {
		return "", fmt.Errorf("video URL cannot be empty")
	}
	if c.session == nil {
		return "", fmt.Errorf("gateway client not connected")
	}

	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      transcriptTool,
		Arguments: map[string]any{"url": videoURL},
	})
	if err != nil {
		return "", fmt.Errorf("%w: get_transcript call: %v", ErrUnavailable, err)
	}
	if res.IsError {
		return "", fmt.Errorf("get_transcript tool failed: %s", textContent(res))
	}

	transcript := textContent(res)
	if transcript == "" {
		return "", ErrEmptyTranscript
	}

	return transcript, nil
}

func (c *Client) ListToolNames(ctx context.Context) ([]string, error) {
	if c.session == nil {
		return nil, fmt.Errorf("gateway client not connected")
	}

	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: list tools: %v", ErrUnavailable, err)
	}

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names, nil
}

// VerifyTools checks that every required tool is exposed by the
// gateway. Tool servers are enabled per deployment, so a reachable
// gateway can still be missing the ones this agent needs.
func (c *Client) VerifyTools(ctx context.Context, required []string) error {
	names, err := c.ListToolNames(ctx)
	if err != nil {
		return err
	}

	available := make(map[string]bool, len(names))
	for _, n := range names {
		available[n] = true
	}

	var missing []string
	for _, name := range required {
		if !available[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("gateway is missing required tools: %s", strings.Join(missing, ", "))
	}

	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.session == nil {
		return fmt.Errorf("gateway client not connected")
	}
	return c.session.Ping(ctx, nil)
}

// Healthcheck confirms the session still answers and exposes every
// required tool. The startup probe runs this after connecting.
func (c *Client) Healthcheck(ctx context.Context, required []string) error {
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return c.VerifyTools(ctx, required)
}

func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func textContent(res *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, block := range res.Content {
		if tc, ok := block.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// extractCandidates scans tool output line by line for YouTube watch
// links. The rest of the line doubles as the title, and repeated URLs
// collapse into the first occurrence.
func extractCandidates(text string) []*models.VideoCandidate {
	var out []*models.VideoCandidate
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToLower(line), "youtube.com/watch") {
			continue
		}
		watchURL := urlPattern.FindString(line)
		if watchURL == "" || seen[watchURL] {
			continue
		}
		seen[watchURL] = true
		out = append(out, &models.VideoCandidate{
			ID:    videoID(watchURL),
			Title: candidateTitle(line, watchURL),
			URL:   watchURL,
		})
	}

	return out
}

func videoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if id := u.Query().Get("v"); id != "" {
		return id
	}
	return rawURL
}

func candidateTitle(line, watchURL string) string {
	title := strings.ReplaceAll(line, watchURL, "")
	title = strings.Trim(title, " \t-|:")
	if title == "" {
		return watchURL
	}
	return title
}
