package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Output file names.
const (
	MarkdownFile = "TREASURY_REPORT.md"
	CSVFile      = "TREASURY.csv"
)

// lamportsPerSOL converts lamports for display.
const lamportsPerSOL = 1_000_000_000

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Treasury Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Blogs: %d\n\n", r.Totals.Blogs))

	// Totals
	sb.WriteString("## Totals\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Standard tokens issued | %d |\n", r.Totals.StandardIssued))
	sb.WriteString(fmt.Sprintf("| Premium tokens issued | %d |\n", r.Totals.PremiumIssued))
	sb.WriteString(fmt.Sprintf("| Donations | %s |\n", formatSOL(r.Totals.Donations)))
	sb.WriteString(fmt.Sprintf("| Premium revenue | %s |\n", formatSOL(r.Totals.PremiumRevenue)))
	sb.WriteString(fmt.Sprintf("| Withdrawn | %s |\n", formatSOL(r.Totals.Withdrawn)))
	sb.WriteString(fmt.Sprintf("| Withdrawable surplus | %s |\n", formatSOL(r.Totals.Surplus)))
	sb.WriteString("\n")

	// Blogs
	sb.WriteString("## Blogs\n\n")
	if len(r.Blogs) == 0 {
		sb.WriteString("No blogs initialized.\n")
		return sb.String()
	}
	sb.WriteString("| State | Authority | Status | Fee | Standard | Premium | Donations | Revenue | Withdrawn | Surplus |\n")
	sb.WriteString("|-------|-----------|--------|-----|----------|---------|-----------|---------|-----------|---------|\n")
	for _, b := range r.Blogs {
		status := "active"
		if b.Paused {
			status = "paused"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %d | %s | %s | %s | %s |\n",
			b.State, b.Authority, status, formatSOL(b.PremiumFee),
			b.StandardIssued, b.PremiumIssued,
			formatSOL(b.Donations), formatSOL(b.PremiumRevenue), formatSOL(b.Withdrawn), formatSOL(b.Surplus)))
	}
	sb.WriteString("\n")

	return sb.String()
}

// formatSOL renders lamports as SOL with nine decimals.
func formatSOL(lamports uint64) string {
	return fmt.Sprintf("%d.%09d SOL", lamports/lamportsPerSOL, lamports%lamportsPerSOL)
}

// WriteFiles renders the report into outputDir and returns the written paths.
func WriteFiles(outputDir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{MarkdownFile, RenderMarkdown(r)},
		{CSVFile, RenderCSV(r.Blogs)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(outputDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
