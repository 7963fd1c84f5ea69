package podcastdigest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"podbrief/agents/podcast-digest/gateway"
	"podbrief/internal/models"
	"podbrief/shared/ai"
	"podbrief/shared/config"
	"podbrief/shared/email"
	"podbrief/shared/scheduler"
	"podbrief/shared/storage"
)

type toolGateway interface {
	Connect(ctx context.Context) error
	Search(ctx context.Context, query string, maxResults int) ([]*models.VideoCandidate, error)
	FetchTranscript(ctx context.Context, videoURL string) (string, error)
	Close() error
}

type transcriptSummarizer interface {
	Summarize(ctx context.Context, transcript string) (*ai.Summary, error)
}

type digestSender interface {
	SendDigest(digest *models.DigestReport) error
}

// DigestAgent implements the scheduler.Agent interface
type DigestAgent struct {
	config     *config.Config
	gateway    toolGateway
	summarizer transcriptSummarizer
	sender     digestSender

	// tracker exists only on the scheduled path. Single runs leave it
	// nil and never filter, so a video shared by two people still
	// yields one row per person.
	tracker *storage.SeenTracker

	// OnPersonStart and OnPersonDone, when set, receive per-person
	// progress during a digest pass. The CLI uses them to drive the
	// spinner and print progress lines.
	OnPersonStart func(person string)
	OnPersonDone  func(person string, summarized int)
}

func NewDigestAgent(cfg *config.Config) *DigestAgent {
	return &DigestAgent{config: cfg}
}

func (d *DigestAgent) Name() string {
	return "Podcast Digest"
}

func (d *DigestAgent) Initialize() error {
	log.Printf("Initializing %s...", d.Name())

	if d.gateway == nil {
		d.gateway = gateway.NewClient(d.config)
		log.Println("Gateway client initialized")
	}

	if d.summarizer == nil {
		d.summarizer = ai.NewSummarizer(d.config)
		log.Println("Summarizer initialized")
	}

	if d.sender == nil {
		d.sender = email.NewSender(&d.config.Email)
		log.Println("Email sender initialized")
	}

	return nil
}

// DigestMetrics summarizes one digest pass for the monitor.
type DigestMetrics struct {
	People     int
	Candidates int
	Summarized int
	Skipped    int
}

func (m *DigestMetrics) GetSummary() string {
	return fmt.Sprintf("%d podcasts for %d people (%d candidates, %d skipped)",
		m.Summarized, m.People, m.Candidates, m.Skipped)
}

// BuildDigest runs one full pass: search per person, fetch transcripts,
// summarize. People are processed sequentially and failures stay
// isolated, so one person's dead search never aborts the rest. Only a
// gateway that cannot be reached at all fails the pass.
func (d *DigestAgent) BuildDigest(ctx context.Context) (*models.DigestReport, *DigestMetrics, error) {
	if err := d.gateway.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}
	defer d.gateway.Close()

	digest := &models.DigestReport{Date: time.Now()}
	metrics := &DigestMetrics{}

	for _, person := range d.config.People {
		name := strings.TrimSpace(person)
		if name == "" {
			log.Println("Warning: Skipping blank person name")
			continue
		}

		if ctx.Err() != nil {
			log.Println("Digest pass cancelled")
			break
		}

		digest.People = append(digest.People, name)
		metrics.People++

		if d.OnPersonStart != nil {
			d.OnPersonStart(name)
		}

		summaries := d.processPerson(ctx, name, metrics)
		digest.Podcasts = append(digest.Podcasts, summaries...)

		if d.OnPersonDone != nil {
			d.OnPersonDone(name, len(summaries))
		}
	}

	return digest, metrics, nil
}

func (d *DigestAgent) processPerson(ctx context.Context, person string, metrics *DigestMetrics) []*models.PodcastSummary {
	query := fmt.Sprintf("%s YouTube podcast", person)

	candidates, err := d.gateway.Search(ctx, query, d.config.Digest.MaxSearchResults)
	if err != nil {
		log.Printf("Warning: Search failed for %s: %v", person, err)
		return nil
	}

	if len(candidates) == 0 {
		log.Printf("No YouTube results found for %s. Try another query.", person)
		return nil
	}
	metrics.Candidates += len(candidates)

	if d.tracker != nil {
		candidates = d.dropSeen(candidates)
		if len(candidates) == 0 {
			log.Printf("Every result for %s was summarized recently, skipping", person)
			return nil
		}
	}

	// First per-person candidates only; a failed candidate is not
	// backfilled from the remainder.
	limit := d.config.Digest.PerPerson
	if limit > len(candidates) {
		limit = len(candidates)
	}

	var summaries []*models.PodcastSummary
	for i, candidate := range candidates[:limit] {
		log.Printf("Summarizing %d/%d for %s: %s", i+1, limit, person, candidate.Title)

		summary := d.processCandidate(ctx, person, candidate)
		if summary == nil {
			metrics.Skipped++
			continue
		}

		summaries = append(summaries, summary)
		metrics.Summarized++
		if d.tracker != nil {
			d.tracker.MarkSeen(candidate.ID)
		}
	}

	return summaries
}

func (d *DigestAgent) processCandidate(ctx context.Context, person string, candidate *models.VideoCandidate) *models.PodcastSummary {
	transcript, err := d.gateway.FetchTranscript(ctx, candidate.URL)
	if err != nil {
		log.Printf("Warning: Skipped %s: %v", shortURL(candidate.URL), err)
		return nil
	}

	summary, err := d.summarizer.Summarize(ctx, transcript)
	if err != nil {
		log.Printf("Warning: Skipped %s: %v", shortURL(candidate.URL), err)
		return nil
	}

	return &models.PodcastSummary{
		Person:   person,
		Title:    truncateTitle(candidate.Title, 50),
		URL:      candidate.URL,
		Topics:   summary.Topics,
		Insights: summary.Insights,
	}
}

func (d *DigestAgent) dropSeen(candidates []*models.VideoCandidate) []*models.VideoCandidate {
	var fresh []*models.VideoCandidate
	for _, c := range candidates {
		if d.tracker.IsSeen(c.ID) {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh
}

// RunOnce is the scheduled entry point: build the digest and deliver
// it by email. A pass that produced nothing is reported as a partial
// failure so the health endpoint stays green.
func (d *DigestAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	// Only scheduled runs come through here. The tracker remembers
	// videos for 7 days so the next pass skips repeats.
	if d.tracker == nil {
		d.tracker = storage.NewSeenTracker(7 * 24 * time.Hour)
	}

	digest, metrics, err := d.BuildDigest(ctx)
	if err != nil {
		return err
	}

	duration := time.Since(startTime)

	if digest.Total() == 0 {
		log.Println("No podcasts were summarized, skipping email")
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("no podcasts were summarized"), duration)
		}
		return nil
	}

	log.Printf("Sending digest with %d podcasts", digest.Total())
	if err := d.sender.SendDigest(digest); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	log.Printf("Digest sent successfully (%d videos tracked)", d.tracker.Count())

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	return nil
}

func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func shortURL(u string) string {
	runes := []rune(u)
	if len(runes) <= 30 {
		return u
	}
	return string(runes[:30]) + "..."
}
