package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kyleking/schemasync/internal/migrate"
	"github.com/kyleking/schemasync/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatLong  OutputFormat = "long"
	FormatShort OutputFormat = "short"
)

const (
	notAvailable = "N/A"
	tableWidth   = 24
)

// Formatter renders synchronization results for the terminal
type Formatter struct {
	now func() time.Time
}

// NewFormatter creates a new formatter instance
func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// FormatResult formats one table's result. The short form is a single line;
// the long form lists the statements as a SQL script.
func (f *Formatter) FormatResult(res migrate.Result, format OutputFormat) string {
	switch format {
	case FormatLong:
		return f.formatLong(res)
	case FormatShort:
		return f.formatShort(res)
	default:
		return f.formatShort(res)
	}
}

// FormatReport formats every result of a run in the short form, the failed
// tables, and a closing summary line
func (f *Formatter) FormatReport(report *storage.Report) string {
	var lines []string

	for _, res := range report.Results {
		lines = append(lines, f.formatShort(res))
	}

	for _, table := range report.Failed {
		lines = append(lines, fmt.Sprintf("%-*s failed", tableWidth, table))
	}

	verb := "Synced"
	if report.DryRun {
		verb = "Planned"
	}

	lines = append(lines, "", fmt.Sprintf("%s %d tables: %d changed, %d failed (run %s)",
		verb, len(report.Results)+len(report.Failed), report.Changed(), len(report.Failed), report.RunID))

	return strings.Join(lines, "\n")
}

// FormatPlan formats a dry-run report as a SQL script
func (f *Formatter) FormatPlan(report *storage.Report) string {
	var parts []string

	for _, res := range report.Results {
		parts = append(parts, f.formatLong(res))
	}

	for _, table := range report.Failed {
		parts = append(parts, fmt.Sprintf("-- %s: cannot be planned", table))
	}

	return strings.Join(parts, "\n")
}

// FormatTable formats the live shape of a table
func (f *Formatter) FormatTable(info *storage.TableInfo) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Table: %s\n", info.Name)
	fmt.Fprintf(&buf, "Has Rows: %t\n\n", info.HasRows)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNOT NULL\tPRIMARY KEY\tDEFAULT")

	for _, c := range info.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\n",
			c.Name, OrNA(c.Type), c.NotNull, c.PrimaryKey, OrNA(c.DefaultValue))
	}

	_ = tw.Flush()

	return strings.TrimRight(buf.String(), "\n")
}

// FormatHistory formats journal entries as a table, newest first
func (f *Formatter) FormatHistory(entries []storage.JournalEntry) string {
	if len(entries) == 0 {
		return "No migrations recorded"
	}

	var buf bytes.Buffer

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APPLIED\tTABLE\tACTION\tCOLUMNS ADDED\tSTATEMENTS\tRUN\tAGE")

	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.AppliedAt.Local().Format("2006-01-02 15:04:05"), e.Table, e.Action,
			e.ColumnsAdded, e.Statements, shortID(e.RunID), f.humanizeAge(e.AppliedAt))
	}

	_ = tw.Flush()

	return strings.TrimRight(buf.String(), "\n")
}

// formatShort is "<table> <what happened>" on one line
func (f *Formatter) formatShort(res migrate.Result) string {
	return fmt.Sprintf("%-*s %s", tableWidth, res.Table, f.describe(res))
}

// formatLong is a comment header followed by one statement per line
func (f *Formatter) formatLong(res migrate.Result) string {
	if len(res.Statements) == 0 {
		return fmt.Sprintf("-- %s: up to date", res.Table)
	}

	lines := []string{fmt.Sprintf("-- %s: %s", res.Table, res.Outcome)}
	for _, stmt := range res.Statements {
		lines = append(lines, stmt.SQL+";")
	}

	return strings.Join(lines, "\n")
}

func (f *Formatter) describe(res migrate.Result) string {
	switch res.Outcome {
	case migrate.UpToDate:
		return "up to date"
	case migrate.Altered:
		return fmt.Sprintf("altered, %d column(s) added", res.ColumnsAdded)
	case migrate.Rebuilt:
		return "rebuilt via " + res.TempTable
	default:
		return res.Outcome.String()
	}
}

// humanizeAge converts a time to a human-readable age string
func (f *Formatter) humanizeAge(t time.Time) string {
	if t.IsZero() {
		return "?"
	}

	duration := f.now().Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return fmt.Sprintf("%d min ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(duration.Hours()))
	}

	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	} else if days < 30 {
		return fmt.Sprintf("%d days ago", days)
	}

	months := days / 30
	if months == 1 {
		return "1 month ago"
	}

	return fmt.Sprintf("%d months ago", months)
}

// OrNA returns s, or N/A when s is empty
func OrNA(s string) string {
	if s == "" {
		return notAvailable
	}

	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
