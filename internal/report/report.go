// Package report renders harness counters and supervisor observations as
// text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/blockq/internal/blockq"
	"github.com/Iron-Ham/blockq/internal/supervisor"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ValidFormats returns the accepted format names.
func ValidFormats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat converts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: %s)", s, strings.Join(ValidFormats(), ", "))
	}
}

// Task is one row of the report.
type Task struct {
	Name          string `json:"name" yaml:"name"`
	Scenario      int    `json:"scenario" yaml:"scenario"`
	Role          string `json:"role" yaml:"role"`
	Priority      int    `json:"priority" yaml:"priority"`
	State         string `json:"state" yaml:"state"`
	Count         uint16 `json:"count" yaml:"count"`
	ErrorOccurred bool   `json:"error_occurred" yaml:"error_occurred"`
	QueueLen      int    `json:"queue_len" yaml:"queue_len"`
	QueueCap      int    `json:"queue_cap" yaml:"queue_cap"`
}

// Supervision summarises what the supervisor observed.
type Supervision struct {
	Polls       int64    `json:"polls" yaml:"polls"`
	FailedPolls int64    `json:"failed_polls" yaml:"failed_polls"`
	Errors      int64    `json:"errors" yaml:"errors"`
	LastLive    bool     `json:"last_live" yaml:"last_live"`
	Stalled     []string `json:"stalled,omitempty" yaml:"stalled,omitempty"`
	Healthy     bool     `json:"healthy" yaml:"healthy"`
}

// Goal describes goal progress.
type Goal struct {
	Target  uint16 `json:"target" yaml:"target"`
	Fired   int64  `json:"fired" yaml:"fired"`
	Reached bool   `json:"reached" yaml:"reached"`
}

// Report is a point-in-time view of a harness run.
type Report struct {
	GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at"`
	Tasks       []Task      `json:"tasks" yaml:"tasks"`
	Supervision Supervision `json:"supervision" yaml:"supervision"`
	Goal        Goal        `json:"goal" yaml:"goal"`
}

// Build assembles a report from a harness snapshot and supervisor status.
func Build(tasks []blockq.TaskStatus, status supervisor.Status) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		Tasks:       make([]Task, 0, len(tasks)),
		Supervision: Supervision{
			Polls:       status.Polls,
			FailedPolls: status.FailedPolls,
			Errors:      status.Errors,
			LastLive:    status.LastLive,
			Stalled:     status.LastStalled,
			Healthy:     status.Healthy(),
		},
		Goal: Goal{
			Target:  blockq.GoalValue,
			Fired:   status.GoalCount,
			Reached: status.GoalCount > 0,
		},
	}
	for _, t := range tasks {
		r.Tasks = append(r.Tasks, Task{
			Name:          t.Name,
			Scenario:      t.Scenario,
			Role:          t.Role.String(),
			Priority:      t.Priority,
			State:         t.State,
			Count:         t.Count,
			ErrorOccurred: t.ErrorOccurred,
			QueueLen:      t.QueueLen,
			QueueCap:      t.QueueCap,
		})
	}
	return r
}

// Filter keeps only the tasks whose names match the glob pattern, e.g.
// "QCons*". An empty pattern keeps everything.
func (r *Report) Filter(pattern string) error {
	if pattern == "" {
		return nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	kept := r.Tasks[:0]
	for _, t := range r.Tasks {
		if g.Match(t.Name) {
			kept = append(kept, t)
		}
	}
	r.Tasks = kept
	return nil
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		return encodeYAML(w, r)
	case FormatText, "":
		return encodeText(w, r)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = cellStyle.Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func encodeText(w io.Writer, r *Report) error {
	rows := make([][]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		flag := "-"
		if t.ErrorOccurred {
			flag = "ERROR"
		}
		rows = append(rows, []string{
			t.Name,
			strconv.Itoa(t.Scenario),
			t.Role,
			strconv.Itoa(t.Priority),
			t.State,
			strconv.Itoa(int(t.Count)),
			fmt.Sprintf("%d/%d", t.QueueLen, t.QueueCap),
			flag,
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TASK", "SCENARIO", "ROLE", "PRIO", "STATE", "COUNT", "QUEUE", "FLAG").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 7 && row >= 0 && row < len(rows) && rows[row][7] != "-" {
				return errorStyle
			}
			return cellStyle
		})

	verdict := okStyle.Render("healthy")
	if !r.Supervision.Healthy {
		verdict = failStyle.Render("unhealthy")
	}

	var b strings.Builder
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	fmt.Fprintf(&b, "liveness: %d polls, %d failed, last %s\n",
		r.Supervision.Polls, r.Supervision.FailedPolls, liveWord(r.Supervision.LastLive))
	if len(r.Supervision.Stalled) > 0 {
		fmt.Fprintf(&b, "stalled:  %s\n", strings.Join(r.Supervision.Stalled, ", "))
	}
	fmt.Fprintf(&b, "errors:   %d\n", r.Supervision.Errors)
	fmt.Fprintf(&b, "goal:     %d (fired %d)\n", r.Goal.Target, r.Goal.Fired)
	fmt.Fprintf(&b, "verdict:  %s\n", verdict)

	_, err := io.WriteString(w, b.String())
	return err
}

func liveWord(live bool) string {
	if live {
		return "live"
	}
	return "stalled"
}
