package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Iron-Ham/blockq/internal/blockq"
)

// ScenarioTask describes one side of a scenario.
type ScenarioTask struct {
	Name      string `json:"name" yaml:"name"`
	Priority  string `json:"priority" yaml:"priority"`
	BlockTime string `json:"block_time" yaml:"block_time"`
}

// ScenarioRow is one scenario in the table.
type ScenarioRow struct {
	Number   int          `json:"number" yaml:"number"`
	Capacity int          `json:"capacity" yaml:"capacity"`
	Producer ScenarioTask `json:"producer" yaml:"producer"`
	Consumer ScenarioTask `json:"consumer" yaml:"consumer"`
	Goal     bool         `json:"goal" yaml:"goal"`
	Summary  string       `json:"summary" yaml:"summary"`
}

// Scenarios converts the scenario table for display.
func Scenarios(scs []blockq.Scenario) []ScenarioRow {
	rows := make([]ScenarioRow, 0, len(scs))
	for _, sc := range scs {
		rows = append(rows, ScenarioRow{
			Number:   sc.Number,
			Capacity: sc.Capacity,
			Producer: scenarioTask(sc.Producer),
			Consumer: scenarioTask(sc.Consumer),
			Goal:     sc.TracksGoal,
			Summary:  sc.Summary,
		})
	}
	return rows
}

func scenarioTask(t blockq.TaskSpec) ScenarioTask {
	prio := "idle"
	if t.Elevated {
		prio = "elevated"
	}
	block := "0 (non-blocking)"
	if t.BlockTime > 0 {
		block = t.BlockTime.String()
	}
	return ScenarioTask{Name: t.Name, Priority: prio, BlockTime: block}
}

// EncodeScenarios writes the scenario table in the given format.
func EncodeScenarios(w io.Writer, rows []ScenarioRow, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatYAML:
		return encodeYAML(w, rows)
	case FormatText, "":
		data := make([][]string, 0, len(rows))
		for _, r := range rows {
			data = append(data, []string{
				strconv.Itoa(r.Number),
				strconv.Itoa(r.Capacity),
				r.Producer.Name + " (" + r.Producer.Priority + ")",
				r.Producer.BlockTime,
				r.Consumer.Name + " (" + r.Consumer.Priority + ")",
				r.Consumer.BlockTime,
				r.Summary,
			})
		}
		tbl := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "CAP", "PRODUCER", "SEND BLOCK", "CONSUMER", "RECV BLOCK", "BEHAVIOUR").
			Rows(data...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		_, err := fmt.Fprintln(w, tbl.Render())
		return err
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}
