package models

import "time"

type VideoCandidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type PodcastSummary struct {
	Person   string `json:"person"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Topics   string `json:"topics"`
	Insights string `json:"insights"`
}

type DigestReport struct {
	Date     time.Time         `json:"date"`
	People   []string          `json:"people"`
	Podcasts []*PodcastSummary `json:"podcasts"`
}

func (r *DigestReport) Total() int {
	return len(r.Podcasts)
}

func (r *DigestReport) CountFor(person string) int {
	n := 0
	for _, p := range r.Podcasts {
		if p.Person == person {
			n++
		}
	}
	return n
}
