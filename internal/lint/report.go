package lint

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// reportGutter is the number of spaces between the id column and messages.
const reportGutter = 3

var (
	idColor    = color.New(color.FgYellow)
	tokenColor = color.New(color.Bold)
	crossColor = color.New(color.FgRed)
)

// FormatReport renders problems as an aligned, human readable report. It
// returns an empty string when there is nothing to report. Colors follow
// color.NoColor.
func FormatReport(problems []Problem) string {
	if len(problems) == 0 {
		return ""
	}

	width := 0
	for _, problem := range problems {
		width = max(width, runewidth.StringWidth(problem.ID))
	}

	var report strings.Builder
	for _, problem := range problems {
		padding := width - runewidth.StringWidth(problem.ID) + reportGutter
		report.WriteString(idColor.Sprint(problem.ID))
		report.WriteString(strings.Repeat(" ", padding))
		report.WriteString(highlight(problem.Message))
		report.WriteByte('\n')
	}

	_, _ = fmt.Fprintf(&report, "\n%s%d problems\n", crossColor.Sprint("✖ "), len(problems))
	return report.String()
}

// highlight replaces `quoted` spans with highlighted text. An unpaired
// backtick is kept as is.
func highlight(message string) string {
	parts := strings.Split(message, "`")

	var out strings.Builder
	for i, part := range parts {
		switch {
		case i%2 == 0:
			out.WriteString(part)
		case i == len(parts)-1:
			out.WriteString("`" + part)
		default:
			out.WriteString(tokenColor.Sprint(part))
		}
	}
	return out.String()
}
