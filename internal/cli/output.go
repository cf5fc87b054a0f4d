package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/engine/batch"
)

const (
	// tabPadding is the minimum column padding for tabwriter output.
	tabPadding = 2

	// maxTitleWidth truncates titles in table output.
	maxTitleWidth = 40

	summaryBoxWidth = 64
)

// batchReport is the JSON document written by batch --output json.
type batchReport struct {
	RunID      string        `json:"run_id"`
	AnalyzedAt time.Time     `json:"analyzed_at"`
	Duration   string        `json:"duration"`
	Summary    batch.Summary `json:"summary"`
	Items      []batch.Item  `json:"videos"`
}

func newBatchReport(res *batch.Result) batchReport {
	return batchReport{
		RunID:      res.RunID,
		AnalyzedAt: res.FinishedAt,
		Duration:   res.Duration().Round(time.Millisecond).String(),
		Summary:    res.Summary(),
		Items:      res.Items,
	}
}

// validateFormat checks format against the accepted output formats.
func validateFormat(format string) error {
	if !slices.Contains(config.OutputFormats, format) {
		return fmt.Errorf("unsupported output format %q (valid: %s)", format, strings.Join(config.OutputFormats, ", "))
	}
	return nil
}

// openOutput returns stdout, or the file at path when path is set.
// The returned close function must always be called.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeNDJSON writes one item per line, in input order.
func writeNDJSON(w io.Writer, items []batch.Item) error {
	enc := json.NewEncoder(w)
	for i := range items {
		if err := enc.Encode(&items[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeCSV writes the succeeded items as table rows and returns how many
// items were left out.
func writeCSV(w io.Writer, items []batch.Item) (int, error) {
	rows, skipped := batch.ToTable(items)

	cw := csv.NewWriter(w)
	if err := cw.Write(batch.TableColumns); err != nil {
		return skipped, err
	}
	for _, row := range rows {
		if err := cw.Write(row.Strings()); err != nil {
			return skipped, err
		}
	}
	cw.Flush()
	return skipped, cw.Error()
}

// writeBatch renders res in format.
func writeBatch(w io.Writer, format string, res *batch.Result, styled bool) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, newBatchReport(res))
	case config.FormatNDJSON:
		return writeNDJSON(w, res.Items)
	case config.FormatCSV:
		_, err := writeCSV(w, res.Items)
		return err
	default:
		return renderBatchTable(w, res, styled)
	}
}

// renderBatchTable writes one line per item followed by the summary block.
func renderBatchTable(w io.Writer, res *batch.Result, styled bool) error {
	p := message.NewPrinter(language.English)

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "#\tVIDEO\tTITLE\tVIEWS\tENGAGEMENT\tSCORE\tSTATUS")
	for i := range res.Items {
		item := &res.Items[i]
		if !item.Succeeded() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t-\t-\t-\t%s\n",
				item.Index+1, orDash(item.EntityID), truncate(item.RawInput, maxTitleWidth),
				failureLabel(item, styled))
			continue
		}
		md := item.Analysis.Metadata
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f%%\t%d\t%s\n",
			item.Index+1, item.EntityID, truncate(md.Title, maxTitleWidth),
			p.Sprintf("%d", md.Statistics.ViewCount),
			item.Analysis.Engagement.EngagementRate,
			item.Recommendation.Overall,
			string(item.Status))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return renderSummary(w, p, res, styled)
}

func renderSummary(w io.Writer, p *message.Printer, res *batch.Result, styled bool) error {
	s := res.Summary()

	var b strings.Builder
	p.Fprintf(&b, "Videos analyzed:   %d (%d failed)\n", s.TotalItems, s.FailedItems)
	p.Fprintf(&b, "Total views:       %d\n", s.TotalViews)
	p.Fprintf(&b, "Average views:     %.2f\n", s.AverageViews)
	fmt.Fprintf(&b, "Avg engagement:    %.2f%%\n", s.AverageEngagementRate)
	fmt.Fprintf(&b, "Avg like rate:     %.2f%%\n", s.AverageLikeRate)
	writeHighlight(&b, p, "Best performing:   ", s.BestPerforming)
	writeHighlight(&b, p, "Worst performing:  ", s.WorstPerforming)
	writeHighlight(&b, p, "Most engaging:     ", s.HighestEngagement)
	writeHighlight(&b, p, "Least engaging:    ", s.LowestEngagement)
	for _, kind := range sortedKinds(s.FailuresByKind) {
		fmt.Fprintf(&b, "Failed (%s): %d\n", kind, s.FailuresByKind[kind])
	}
	fmt.Fprintf(&b, "Duration:          %s", res.Duration().Round(time.Millisecond))

	if !styled {
		_, err := fmt.Fprintln(w, "BATCH SUMMARY\n"+b.String())
		return err
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")).Render("BATCH SUMMARY")
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(summaryBoxWidth).
		Render(title + "\n" + b.String())
	_, err := fmt.Fprintln(w, box)
	return err
}

func writeHighlight(b *strings.Builder, p *message.Printer, label string, h *batch.Highlight) {
	if h == nil {
		return
	}
	b.WriteString(label)
	p.Fprintf(b, "%s (%d views, %.2f%%)\n", truncate(h.Title, maxTitleWidth), h.Views, h.EngagementRate)
}

func sortedKinds(m map[engine.Kind]int) []engine.Kind {
	kinds := make([]engine.Kind, 0, len(m))
	for kind := range m {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// renderReport writes the analysis and recommendations of one video.
func renderReport(w io.Writer, report engine.Report, styled bool) error {
	p := message.NewPrinter(language.English)
	md := report.Analysis.Metadata
	rec := report.Recommendation

	heading := func(s string) string {
		if styled {
			return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")).Render(s)
		}
		return s
	}

	var b strings.Builder
	b.WriteString(heading(md.Title) + "\n")
	b.WriteString(md.URL() + "\n\n")
	p.Fprintf(&b, "Views: %d  Likes: %d  Comments: %d\n",
		md.Statistics.ViewCount, md.Statistics.LikeCount, md.Statistics.CommentCount)
	fmt.Fprintf(&b, "Engagement: %.2f%%  Like rate: %.2f%%  Comment rate: %.2f%%  Estimated CTR: %.2f%%\n",
		report.Analysis.Engagement.EngagementRate, report.Analysis.Engagement.LikeRate,
		report.Analysis.Engagement.CommentRate, report.Analysis.Engagement.EstimatedCTR)
	switch {
	case report.Analysis.CommentsDisabled:
		b.WriteString("Comments: disabled\n")
	case report.Analysis.Sentiment != nil:
		fmt.Fprintf(&b, "Sentiment: %s (%d comments)\n",
			report.Analysis.Sentiment.Overall, report.Analysis.Sentiment.TotalComments)
	default:
		fmt.Fprintf(&b, "Comments analyzed: %d\n", report.Analysis.CommentCount)
	}
	fmt.Fprintf(&b, "\n%s %d/100\n", heading("Overall SEO score:"), rec.Overall)

	for _, section := range []struct {
		name string
		s    engine.Section
	}{
		{"Title", rec.Title},
		{"Description", rec.Description},
		{"Tags", rec.Tags},
		{"Thumbnail", rec.Thumbnail},
		{"Engagement", rec.Engagement},
		{"SEO", rec.SEO},
	} {
		fmt.Fprintf(&b, "\n%s %d/100\n", heading(section.name+":"), section.s.Score)
		for _, suggestion := range section.s.Suggestions {
			b.WriteString("  - " + suggestion + "\n")
		}
	}
	if len(rec.Content) > 0 {
		b.WriteString("\n" + heading("Content ideas:") + "\n")
		for _, idea := range rec.Content {
			b.WriteString("  - " + idea + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func failureLabel(item *batch.Item, styled bool) string {
	label := fmt.Sprintf("failed (%s)", item.ErrorKind)
	if styled {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(label)
	}
	return label
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
