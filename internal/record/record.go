// Package record turns a reconstructed terminal row into a timestamped,
// newline-terminated log record.
package record

import (
	"strings"
	"time"
)

// TimeLayout is the timestamp layout used in record prefixes.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Record is one finalized output line.
type Record struct {
	Time time.Time
	Text string
}

// Bytes renders the record as "[<timestamp>] <text>\n".
func (r Record) Bytes() []byte {
	b := make([]byte, 0, len(TimeLayout)+len(r.Text)+4)
	b = append(b, '[')
	b = r.Time.AppendFormat(b, TimeLayout)
	b = append(b, "] "...)
	b = append(b, r.Text...)
	return append(b, '\n')
}

// String is Bytes as a string.
func (r Record) String() string {
	return string(r.Bytes())
}

// Texter is anything that renders its visible text with trailing blanks
// removed, such as a *screen.Line.
type Texter interface {
	String() string
}

// Finalizer stamps reconstructed rows with the time of finalization.
type Finalizer struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Finalize snapshots the row's text and stamps it. Trailing blanks are
// stripped even if the Texter left some behind.
func (f Finalizer) Finalize(t Texter) Record {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return Record{
		Time: now().Local(),
		Text: strings.TrimRight(t.String(), " "),
	}
}

// Parse splits a rendered record line back into its parts. It reports false
// for lines that do not carry a well-formed timestamp prefix.
func Parse(line string) (Record, bool) {
	line = strings.TrimSuffix(line, "\n")
	if len(line) < len(TimeLayout)+3 || line[0] != '[' || line[len(TimeLayout)+1] != ']' {
		return Record{}, false
	}
	ts, err := time.ParseInLocation(TimeLayout, line[1:len(TimeLayout)+1], time.Local)
	if err != nil {
		return Record{}, false
	}
	text := line[len(TimeLayout)+2:]
	text = strings.TrimPrefix(text, " ")
	return Record{Time: ts, Text: text}, true
}
