package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"

	"podbrief/internal/models"
	"podbrief/shared/config"
)

//go:embed digest_template.html
var digestTemplate string

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

func (s *Sender) SendDigest(digest *models.DigestReport) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}

	if len(digest.Podcasts) == 0 {
		return nil // Nothing to deliver
	}

	subject := fmt.Sprintf("Podcast Digest - %d Summaries (%s)",
		digest.Total(), digest.Date.Format("Jan 2, 2006"))

	body, err := generateDigestBody(digest)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

type digestView struct {
	Date    string
	Total   int
	Persons []personView
}

type personView struct {
	Name     string
	Podcasts []*models.PodcastSummary
}

func generateDigestBody(digest *models.DigestReport) (string, error) {
	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return "", err
	}

	view := digestView{
		Date:  digest.Date.Format("January 2, 2006"),
		Total: digest.Total(),
	}
	for _, person := range digest.People {
		pv := personView{Name: person}
		for _, p := range digest.Podcasts {
			if p.Person == person {
				pv.Podcasts = append(pv.Podcasts, p)
			}
		}
		if len(pv.Podcasts) > 0 {
			view.Persons = append(view.Persons, pv)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", err
	}

	return buf.String(), nil
}
