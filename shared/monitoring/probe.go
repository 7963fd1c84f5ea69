package monitoring

import (
	"context"
	"time"
)

// ServiceProbe is one reachability check against an external service.
// Check must not have side effects: running a probe twice against an
// unchanged service gives the same answer.
type ServiceProbe struct {
	Name  string
	Hint  string
	Check func(ctx context.Context) error
}

type ProbeResult struct {
	Name    string
	Healthy bool
	Message string
	Hint    string
	Latency time.Duration
}

// Prober runs service probes sequentially, each under its own timeout.
// A failing check never aborts the remaining probes.
type Prober struct {
	timeout time.Duration
	probes  []ServiceProbe
}

func NewProber(timeout time.Duration, probes ...ServiceProbe) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{timeout: timeout, probes: probes}
}

func (p *Prober) Run(ctx context.Context) []ProbeResult {
	results := make([]ProbeResult, 0, len(p.probes))
	for _, probe := range p.probes {
		results = append(results, p.runOne(ctx, probe))
	}
	return results
}

func (p *Prober) runOne(ctx context.Context, probe ServiceProbe) ProbeResult {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := probe.Check(checkCtx)
	latency := time.Since(start)

	if err != nil {
		return ProbeResult{
			Name:    probe.Name,
			Healthy: false,
			Message: err.Error(),
			Hint:    probe.Hint,
			Latency: latency,
		}
	}

	return ProbeResult{
		Name:    probe.Name,
		Healthy: true,
		Message: "connected",
		Latency: latency,
	}
}

func HasFailures(results []ProbeResult) bool {
	for _, r := range results {
		if !r.Healthy {
			return true
		}
	}
	return false
}
