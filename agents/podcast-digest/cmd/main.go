package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"podbrief/agents/podcast-digest"
	"podbrief/agents/podcast-digest/gateway"
	"podbrief/shared/ai"
	"podbrief/shared/config"
	"podbrief/shared/monitoring"
	"podbrief/shared/report"
	"podbrief/shared/scheduler"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress() *progress {
	return &progress{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Fetching podcasts..."),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		),
	}
}

func (p *progress) update(status string) {
	p.bar.Describe(fmt.Sprintf("[cyan]%s[reset]", status))
	p.bar.Add(1)
}

func (p *progress) clear() {
	p.bar.Clear()
}

func main() {
	peopleFlag := flag.String("people", "", "Comma-separated names to search for")
	perPerson := flag.Int("per-person", 0, "How many videos to summarize per person (default: 2)")
	maxSearchResults := flag.Int("max-search-results", 0, "How many search hits to inspect for each person (default: 15)")
	llmEndpoint := flag.String("llm-endpoint", "", "OpenAI-compatible endpoint of the local LLM server")
	mcpEndpoint := flag.String("mcp-endpoint", "", "MCP gateway endpoint")
	smokeTest := flag.Bool("smoke-test", false, "Only verify both services are alive, then exit")
	schedule := flag.Bool("schedule", false, "Run on the configured cron schedule and email each digest")
	configFile := flag.String("config", "", "Path to the YAML config file (default: config.yaml)")
	flag.Parse()

	if *configFile != "" {
		os.Setenv("CONFIG_FILE", *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := applyFlags(cfg, *peopleFlag, *perPerson, *maxSearchResults, *llmEndpoint, *mcpEndpoint); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report.WriteBanner(os.Stdout)

	summarizer := ai.NewSummarizer(cfg)
	prober := monitoring.NewProber(
		time.Duration(cfg.LLM.ProbeTimeoutSeconds)*time.Second,
		monitoring.ServiceProbe{
			Name:  "LLM server",
			Hint:  "Start it via 'scripts/start_llm_server.sh' (Docker required).",
			Check: summarizer.Probe,
		},
		monitoring.ServiceProbe{
			Name:  "MCP gateway",
			Hint:  "Start it via 'scripts/start_mcp_gateway.sh'.",
			Check: gatewayCheck(cfg),
		},
	)

	results := prober.Run(ctx)
	report.WriteProbeResults(os.Stdout, results)
	if monitoring.HasFailures(results) {
		os.Exit(1)
	}

	if *smokeTest {
		color.New(color.FgGreen, color.Bold).Println("Smoke test passed - you're ready to run without --smoke-test.")
		return
	}

	agent := podcastdigest.NewDigestAgent(cfg)

	if *schedule {
		if err := cfg.ValidateEmail(); err != nil {
			log.Fatalf("Email configuration is required for scheduled digests: %v", err)
		}
		s := scheduler.New(cfg, agent)
		log.Println("Starting scheduler...")
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Scheduler failed: %v", err)
		}
		return
	}

	if err := agent.Initialize(); err != nil {
		log.Fatalf("Failed to initialize agent: %v", err)
	}

	runDigest(ctx, cfg, agent)
}

func applyFlags(cfg *config.Config, people string, perPerson, maxSearchResults int, llmEndpoint, mcpEndpoint string) error {
	provided := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { provided[f.Name] = true })

	if provided["people"] {
		var names []string
		for _, p := range strings.Split(people, ",") {
			names = append(names, strings.TrimSpace(p))
		}
		cfg.People = names
	}
	if provided["per-person"] {
		if perPerson < 1 {
			return fmt.Errorf("--per-person must be at least 1, got %d", perPerson)
		}
		cfg.Digest.PerPerson = perPerson
	}
	if provided["max-search-results"] {
		if maxSearchResults < 1 {
			return fmt.Errorf("--max-search-results must be at least 1, got %d", maxSearchResults)
		}
		cfg.Digest.MaxSearchResults = maxSearchResults
	}
	if provided["llm-endpoint"] {
		cfg.LLM.Endpoint = llmEndpoint
	}
	if provided["mcp-endpoint"] {
		cfg.Gateway.Endpoint = mcpEndpoint
	}

	return nil
}

func gatewayCheck(cfg *config.Config) func(context.Context) error {
	return func(ctx context.Context) error {
		client := gateway.NewClient(cfg)
		if err := client.Connect(ctx); err != nil {
			return err
		}
		defer client.Close()
		return client.Healthcheck(ctx, cfg.Gateway.RequiredTools)
	}
}

func runDigest(ctx context.Context, cfg *config.Config, agent *podcastdigest.DigestAgent) {
	prog := newProgress()
	green := color.New(color.FgGreen)

	agent.OnPersonStart = func(person string) {
		prog.update(fmt.Sprintf("Processing %s...", person))
	}
	agent.OnPersonDone = func(person string, summarized int) {
		prog.clear()
		fmt.Printf("%s %s: %d podcasts\n", green.Sprint("✓"), person, summarized)
	}

	start := time.Now()
	digest, metrics, err := agent.BuildDigest(ctx)
	prog.clear()
	if err != nil {
		color.New(color.FgRed, color.Bold).Printf("Error: %v\n", err)
		report.WriteTroubleshooting(os.Stdout, cfg.Gateway.Endpoint, cfg.LLM.Endpoint)
		os.Exit(1)
	}

	if digest.Total() == 0 {
		report.WriteEmptyNotice(os.Stdout)
		os.Exit(1)
	}

	fmt.Println()
	report.WriteTable(os.Stdout, digest)
	fmt.Println()
	report.WriteSummaryBlock(os.Stdout, digest)

	log.Printf("Digest complete: %s (took %v)", metrics.GetSummary(), time.Since(start).Round(time.Millisecond))
}
