// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/odflow/internal/cmd/emoji"
	"github.com/agentstation/odflow/pkg/pipeline"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// StepResultsToTableData converts step results to table format. The wide
// form adds the outputs and warnings of each step.
func StepResultsToTableData(results []*pipeline.StepResult, wide bool) Data {
	headers := []string{"Step", "Status", "Files", "Records", "Years", "Duration"}
	align := []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft, AlignRight}
	if wide {
		headers = append(headers, "Outputs", "Warnings")
		align = append(align, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{
			r.Step,
			FormatStatus(r),
			FormatNumber(int64(r.Files)),
			FormatNumber(int64(r.Records)),
			FormatYears(r.Years),
			FormatDuration(r.Duration),
		}
		if wide {
			row = append(row, orDash(strings.Join(r.Outputs, "\n")), orDash(strings.Join(r.Warnings, "\n")))
		}
		rows = append(rows, row)
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: align,
	}
}

// FormatStatus renders a step status with its symbol.
func FormatStatus(r *pipeline.StepResult) string {
	switch {
	case len(r.Warnings) > 0:
		return emoji.Warning + " " + string(r.Status)
	case r.Status == pipeline.StatusDone:
		return emoji.Success + " " + string(r.Status)
	default:
		return emoji.Optional + " " + string(r.Status)
	}
}

// FormatYears renders a sorted year list as a range.
func FormatYears(years []int) string {
	switch len(years) {
	case 0:
		return "-"
	case 1:
		return strconv.Itoa(years[0])
	default:
		return fmt.Sprintf("%d-%d", years[0], years[len(years)-1])
	}
}

// FormatDuration rounds a duration for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

// FormatNumber formats large numbers with comma separators.
func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	// Add commas every 3 digits
	result := ""
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(r)
	}
	return result
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
