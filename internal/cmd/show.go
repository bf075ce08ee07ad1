package cmd

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/ttylog/internal/errors"
	"github.com/Iron-Ham/ttylog/internal/logfile"
	"github.com/Iron-Ham/ttylog/internal/record"
)

var showCmd = &cobra.Command{
	Use:   "show [FILE]",
	Short: "Print a record file",
	Long: `Show prints the records of a log file with dimmed timestamps. Without
FILE it shows the newest file under the output directory. Compressed (.gz)
files are read transparently.

Examples:
  # Show the most recent capture
  ttylog show

  # Last 20 records mentioning "error" from the past hour
  ttylog show --since 1h --grep error --tail 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

var (
	showTail  int
	showSince string
	showGrep  string
)

// Styles for record output
var (
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	matchStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
)

func init() {
	showCmd.Flags().IntVarP(&showTail, "tail", "n", 0, "Number of records to show (0 for all)")
	showCmd.Flags().StringVar(&showSince, "since", "", "Show records since duration ago (e.g., 1h, 30m)")
	showCmd.Flags().StringVar(&showGrep, "grep", "", "Show records whose text matches pattern (regex)")
}

// recordFilter selects which records of a file are shown.
type recordFilter struct {
	since time.Time
	grep  *regexp.Regexp
}

func (f recordFilter) match(rec record.Record) bool {
	if !f.since.IsZero() && rec.Time.Before(f.since) {
		return false
	}
	if f.grep != nil && !f.grep.MatchString(rec.Text) {
		return false
	}
	return true
}

func runShow(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, err = logfile.Latest(cfg.Output.ResolveDir())
		if err != nil {
			return err
		}
	}

	var filter recordFilter
	if showSince != "" {
		d, err := time.ParseDuration(showSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.since = time.Now().Add(-d)
	}
	if showGrep != "" {
		re, err := regexp.Compile(showGrep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
		filter.grep = re
	}

	rc, err := logfile.OpenReader(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	lines, err := readRecords(rc, filter)
	if err != nil {
		return errors.Wrapf(err, "error reading %s", path)
	}
	if showTail > 0 && len(lines) > showTail {
		lines = lines[len(lines)-showTail:]
	}

	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	if len(lines) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No matching records found.")
	}
	return nil
}

// readRecords returns the formatted records of r that pass filter. Lines
// that are not records are kept as-is unless a filter is active.
func readRecords(r io.Reader, filter recordFilter) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)

	// Records hold whole terminal lines, which can be long
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	active := !filter.since.IsZero() || filter.grep != nil
	for scanner.Scan() {
		line := scanner.Text()
		rec, ok := record.Parse(line)
		if !ok {
			if !active {
				lines = append(lines, line)
			}
			continue
		}
		if !filter.match(rec) {
			continue
		}
		lines = append(lines, formatRecord(rec, filter.grep))
	}
	return lines, scanner.Err()
}

// formatRecord renders a record with a dimmed timestamp and highlighted
// grep matches.
func formatRecord(rec record.Record, grep *regexp.Regexp) string {
	var sb strings.Builder
	sb.WriteString(timestampStyle.Render("[" + rec.Time.Format(record.TimeLayout) + "]"))
	sb.WriteString(" ")

	if grep == nil {
		sb.WriteString(rec.Text)
		return sb.String()
	}

	last := 0
	for _, loc := range grep.FindAllStringIndex(rec.Text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		sb.WriteString(rec.Text[last:loc[0]])
		sb.WriteString(matchStyle.Render(rec.Text[loc[0]:loc[1]]))
		last = loc[1]
	}
	sb.WriteString(rec.Text[last:])
	return sb.String()
}
