// Package format provides stateless text formatting helpers shared by all
// winbridge tool handlers. Every function here is a pure function of its
// inputs and is safe to call from concurrent requests.
package format

import (
	"fmt"
	"strings"
	"time"
)

// byteUnits are ordered smallest to largest. A value is rendered in the
// largest unit for which the scaled value stays below 1024.
var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// Bytes renders a byte count in the largest unit in {B, KB, MB, GB, TB}
// such that the scaled value is below 1024, rounded to two decimal places.
// Values of a petabyte or more stay in TB.
func Bytes(n int64) string {
	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, byteUnits[unit])
}

// Uptime renders a duration as days, hours and minutes, e.g.
// "3 days, 4 hours, 12 minutes". Sub-minute durations render as "0 minutes".
func Uptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	parts = append(parts, plural(minutes, "minute"))
	return strings.Join(parts, ", ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Report accumulates a Markdown-ish report: a title, optional key/value
// lines and raw command output blocks. It is a thin convenience over a
// strings.Builder and holds no state beyond the text written so far.
type Report struct {
	b strings.Builder
}

// NewReport starts a report with a top-level heading.
func NewReport(title string) *Report {
	r := &Report{}
	r.b.WriteString("# " + title + "\n")
	return r
}

// Section appends a second-level heading.
func (r *Report) Section(title string) *Report {
	r.b.WriteString("\n## " + title + "\n")
	return r
}

// Subsection appends a third-level heading.
func (r *Report) Subsection(title string) *Report {
	r.b.WriteString("\n### " + title + "\n")
	return r
}

// Field appends a "key: value" line.
func (r *Report) Field(key string, value any) *Report {
	fmt.Fprintf(&r.b, "%s: %v\n", key, value)
	return r
}

// Line appends a raw line of text.
func (r *Report) Line(text string) *Report {
	r.b.WriteString(text + "\n")
	return r
}

// Raw appends captured command output verbatim, trimmed of trailing
// whitespace, inside a fenced block.
func (r *Report) Raw(output string) *Report {
	r.b.WriteString("```\n")
	r.b.WriteString(strings.TrimRight(output, " \t\r\n"))
	r.b.WriteString("\n```\n")
	return r
}

// String returns the accumulated report text.
func (r *Report) String() string {
	return r.b.String()
}
