package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/blockq/internal/config"
	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/event"
	"github.com/Iron-Ham/blockq/internal/report"
)

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{"harness.priority", "3", 3, false},
		{"harness.priority", "three", nil, true},
		{"display.enabled", "false", false, false},
		{"display.enabled", "no", nil, true},
		{"run.format", "yaml", "yaml", false},
		{"run.unknown", "x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := parseConfigValue(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConfigValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseConfigValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestSettableKeysCoverConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := yaml.NewEncoder(&buf).Encode(newConfigView(config.Default())); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var tree map[string]map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &tree); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	count := 0
	for section, fields := range tree {
		for field := range fields {
			count++
			if _, ok := settableKeys[section+"."+field]; !ok {
				t.Errorf("%s.%s is shown but cannot be set", section, field)
			}
		}
	}
	if count != len(settableKeys) {
		t.Errorf("config view has %d keys, settable keys has %d", count, len(settableKeys))
	}
}

func TestDefaultConfigContentMatchesDefaults(t *testing.T) {
	var fromFile configView
	if err := yaml.Unmarshal([]byte(defaultConfigContent), &fromFile); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if want := newConfigView(config.Default()); fromFile != want {
		t.Errorf("config init content = %+v, want %+v", fromFile, want)
	}
}

func TestScenariosCommand(t *testing.T) {
	old := scenariosFormat
	t.Cleanup(func() { scenariosFormat = old })

	t.Run("text", func(t *testing.T) {
		scenariosFormat = "text"
		var buf bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&buf)
		if err := runScenarios(cmd, nil); err != nil {
			t.Fatalf("runScenarios() = %v", err)
		}
		for _, name := range []string{"QConsB1", "QProdB2", "QConsB3", "QProdB4", "QProdB5", "QConsB6"} {
			if !strings.Contains(buf.String(), name) {
				t.Errorf("output missing %s:\n%s", name, buf.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		scenariosFormat = "json"
		var buf bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&buf)
		if err := runScenarios(cmd, nil); err != nil {
			t.Fatalf("runScenarios() = %v", err)
		}
		var rows []report.ScenarioRow
		if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(rows) != 3 || rows[2].Capacity != 5 {
			t.Errorf("rows = %+v", rows)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		scenariosFormat = "xml"
		if err := runScenarios(&cobra.Command{}, nil); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func testSessionConfig() *config.Config {
	cfg := config.Default()
	cfg.Display.Enabled = false
	cfg.Supervisor.PollIntervalMs = 100
	return cfg
}

func TestSession_RunForDuration(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the harness in real time")
	}

	cfg := testSessionConfig()
	cfg.Run.Format = "json"

	var buf bytes.Buffer
	s, err := newSession(cfg, &buf, false)
	if err != nil {
		t.Fatalf("newSession() = %v", err)
	}
	s.duration = 350 * time.Millisecond

	if err := s.run(t.Context()); err != nil {
		t.Fatalf("run() = %v\n%s", err, buf.String())
	}

	var r report.Report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, buf.String())
	}
	if len(r.Tasks) != 6 {
		t.Errorf("report has %d tasks, want 6", len(r.Tasks))
	}
	if r.Supervision.Polls == 0 {
		t.Error("expected at least one liveness poll")
	}
	if !r.Supervision.Healthy || r.Supervision.Errors != 0 {
		t.Errorf("supervision = %+v, want healthy with no errors", r.Supervision)
	}
	for _, task := range r.Tasks {
		if task.ErrorOccurred {
			t.Errorf("%s reported an error", task.Name)
		}
	}
	if s.harness.Running() {
		t.Error("harness should be stopped after run")
	}
}

func TestSession_StopsOnGoal(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the harness until the goal is reached")
	}

	cfg := testSessionConfig()
	cfg.Run.StopOnGoal = true
	cfg.Run.Filter = "QConsB1"

	var buf bytes.Buffer
	s, err := newSession(cfg, &buf, false)
	if err != nil {
		t.Fatalf("newSession() = %v", err)
	}
	// Safety net; the goal should end the run well before this.
	s.duration = 60 * time.Second

	if err := s.run(t.Context()); err != nil {
		t.Fatalf("run() = %v\n%s", err, buf.String())
	}

	out := buf.String()
	for _, want := range []string{"stopped: goal reached", "QConsB1:", "verdict:  healthy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := s.sup.Status().GoalCount; got < 1 {
		t.Errorf("GoalCount = %d, want at least 1", got)
	}
}

func TestSession_InvalidPriority(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Harness.Priority = 0

	s, err := newSession(cfg, &bytes.Buffer{}, false)
	if err != nil {
		t.Fatalf("newSession() = %v", err)
	}
	err = s.run(t.Context())
	if !errors.Is(err, errors.ErrInvalidPriority) {
		t.Fatalf("run() = %v, want ErrInvalidPriority", err)
	}
	if errors.IsFatal(err) {
		t.Error("an invalid priority is a configuration problem, not a fatal startup error")
	}
}

func TestSession_FatalStartup(t *testing.T) {
	s, err := newSession(testSessionConfig(), &bytes.Buffer{}, false)
	if err != nil {
		t.Fatalf("newSession() = %v", err)
	}
	var stopped []string
	s.bus.Subscribe(event.TypeHarnessStopped, func(e event.Event) {
		stopped = append(stopped, e.(event.HarnessStoppedEvent).Reason)
	})

	// Queues cannot be created once the kernel is gone.
	if err := s.kernel.Shutdown(); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
	err = s.run(t.Context())
	if !errors.IsFatal(err) {
		t.Fatalf("run() = %v, want a fatal error", err)
	}
	if !errors.Is(err, errors.ErrQueueCreate) {
		t.Errorf("run() = %v, want ErrQueueCreate", err)
	}
	var startErr *errors.StartupError
	if !errors.As(err, &startErr) || startErr.Scenario != 1 {
		t.Errorf("run() = %v, want a startup error for scenario 1", err)
	}
	if len(stopped) != 1 || stopped[0] != "startup failed" {
		t.Errorf("harness.stopped reasons = %v, want [startup failed]", stopped)
	}
	if s.harness.Running() {
		t.Error("harness should not be running after a failed start")
	}
}
