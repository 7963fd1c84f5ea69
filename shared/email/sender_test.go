package email

import (
	"strings"
	"testing"
	"time"

	"podbrief/internal/models"
	"podbrief/shared/config"
)

func TestGenerateDigestBody(t *testing.T) {
	digest := &models.DigestReport{
		Date:   time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		People: []string{"Sam Altman", "Elon Musk", "Donald Trump"},
		Podcasts: []*models.PodcastSummary{
			{Person: "Sam Altman", Title: "Sam Altman on AGI", URL: "https://www.youtube.com/watch?v=a", Topics: "AI, startups", Insights: "Scaling still works."},
			{Person: "Elon Musk", Title: "Mars and beyond", URL: "https://www.youtube.com/watch?v=c", Topics: "Space, Mars", Insights: "Reusability changed everything."},
		},
	}

	body, err := generateDigestBody(digest)
	if err != nil {
		t.Fatalf("generateDigestBody: %v", err)
	}

	for _, want := range []string{
		"March 10, 2026",
		"2 podcast summaries",
		"<h2>Sam Altman</h2>",
		"<h2>Elon Musk</h2>",
		`href="https://www.youtube.com/watch?v=a"`,
		"AI, startups",
		"Reusability changed everything.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Email body missing %q", want)
		}
	}

	// People without summaries get no section.
	if strings.Contains(body, "Donald Trump") {
		t.Error("Email body should skip people without summaries")
	}
}

func TestSendDigest_EmptyDigest(t *testing.T) {
	sender := NewSender(&config.EmailConfig{})

	digest := &models.DigestReport{Date: time.Now(), People: []string{"Sam Altman"}}
	if err := sender.SendDigest(digest); err != nil {
		t.Errorf("Empty digest should be a no-op, got %v", err)
	}
}

func TestSendDigest_NilDigest(t *testing.T) {
	sender := NewSender(&config.EmailConfig{})

	if err := sender.SendDigest(nil); err == nil {
		t.Error("Expected error for nil digest")
	}
}
