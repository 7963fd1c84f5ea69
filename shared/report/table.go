package report

import (
	"fmt"
	"io"
	"time"

	"podbrief/internal/models"
	"podbrief/shared/monitoring"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Terminal rendering for a digest run. Every writer here is a pure
// function of its arguments; only the CLI hands them os.Stdout.

func WriteBanner(w io.Writer) {
	color.New(color.FgCyan, color.Bold).Fprintln(w, "🎙️  YouTube Podcast Digest")
}

func WriteTable(w io.Writer, digest *models.DigestReport) {
	color.New(color.FgCyan, color.Bold).Fprintln(w, "📊 Podcast Analysis")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Person", "Title", "Topics", "Insights"})
	table.SetRowLine(true)
	table.SetColWidth(40)
	table.SetColMinWidth(0, 12)
	table.SetColMinWidth(1, 30)
	table.SetColMinWidth(2, 35)
	table.SetColMinWidth(3, 40)
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
	)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor},
		tablewriter.Colors{tablewriter.FgWhiteColor},
		tablewriter.Colors{tablewriter.FgYellowColor},
		tablewriter.Colors{tablewriter.FgGreenColor},
	)

	for _, p := range digest.Podcasts {
		table.Append([]string{p.Person, p.Title, p.Topics, p.Insights})
	}

	table.Render()
}

func WriteSummaryBlock(w io.Writer, digest *models.DigestReport) {
	color.New(color.FgGreen, color.Bold).Fprintln(w, "📈 Summary")
	fmt.Fprintf(w, "Total Podcasts: %d\n", digest.Total())
	for _, person := range digest.People {
		fmt.Fprintf(w, "  • %s: %d\n", person, digest.CountFor(person))
	}
}

func WriteEmptyNotice(w io.Writer) {
	color.New(color.FgYellow, color.Bold).Fprintln(w,
		"No podcasts were summarized. Try different names or raise --max-search-results.")
}

func WriteProbeResults(w io.Writer, results []monitoring.ProbeResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	for _, r := range results {
		if r.Healthy {
			fmt.Fprintf(w, "%s %s connected (%v)\n", green.Sprint("✓"), r.Name, r.Latency.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", red.Sprint("✗"), r.Name, r.Message)
		if r.Hint != "" {
			yellow.Fprintf(w, "  %s\n", r.Hint)
		}
	}
}

func WriteTroubleshooting(w io.Writer, mcpEndpoint, llmEndpoint string) {
	color.New(color.FgYellow).Fprintln(w, "Make sure services are still running:")
	fmt.Fprintf(w, "  MCP: %s\n", mcpEndpoint)
	fmt.Fprintf(w, "  LLM: %s\n", llmEndpoint)
	color.New(color.FgCyan).Fprintln(w, "Restart scripts if needed:")
	fmt.Fprintln(w, "  scripts/start_llm_server.sh")
	fmt.Fprintln(w, "  scripts/start_mcp_gateway.sh")
}
