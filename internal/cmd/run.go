package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/blockq/internal/blockq"
	"github.com/Iron-Ham/blockq/internal/config"
	"github.com/Iron-Ham/blockq/internal/display"
	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/event"
	"github.com/Iron-Ham/blockq/internal/logging"
	"github.com/Iron-Ham/blockq/internal/report"
	"github.com/Iron-Ham/blockq/internal/rtos"
	"github.com/Iron-Ham/blockq/internal/supervisor"
	"github.com/Iron-Ham/blockq/internal/tui"
)

// errUnhealthy is returned when the run saw a task error or ended on a
// failed liveness poll.
var errUnhealthy = errors.New("harness unhealthy")

// Stop reasons recorded on the harness.stopped event.
const (
	stopInterrupted = "interrupted"
	stopDuration    = "duration elapsed"
	stopGoal        = "goal reached"
	stopDashboard   = "dashboard closed"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the three blocking queue scenarios",
	Long: `Run starts all six tasks and polls their counters for liveness until
interrupted, until --duration elapses, or with --until-goal until the
scenario 1 consumer has received 3000 values.

A final report is printed when the run ends. The command exits non-zero if a
task reported an error or the last liveness poll found a stalled task.`,
	RunE: runRun,
}

var (
	runPriority  int
	runDuration  time.Duration
	runUntilGoal bool
	runTUI       bool
	runFormat    string
	runFilter    string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runPriority, "priority", "p", 0, "elevated priority for the privileged tasks (overrides harness.priority)")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 0, "stop after this long (overrides run.duration_seconds)")
	runCmd.Flags().BoolVar(&runUntilGoal, "until-goal", false, "stop when the goal is reached")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "show a live dashboard (requires a terminal)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "report format: text, json or yaml (overrides run.format)")
	runCmd.Flags().StringVar(&runFilter, "filter", "", "glob selecting report tasks, e.g. 'QCons*' (overrides run.filter)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("priority") {
		cfg.Harness.Priority = runPriority
	}
	if flags.Changed("until-goal") {
		cfg.Run.StopOnGoal = runUntilGoal
	}
	if flags.Changed("format") {
		cfg.Run.Format = runFormat
	}
	if flags.Changed("filter") {
		cfg.Run.Filter = runFilter
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return config.ValidationErrors(errs)
	}
	if runDuration < 0 {
		return fmt.Errorf("--duration must be non-negative")
	}

	if runTUI && !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("--tui requires stdout to be a terminal")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(cfg, cmd.OutOrStdout(), runTUI)
	if err != nil {
		return err
	}
	if flags.Changed("duration") {
		s.duration = runDuration
	}
	return s.run(ctx)
}

// session wires one harness run: kernel, display, bus, supervisor and
// harness.
type session struct {
	cfg      *config.Config
	out      io.Writer
	useTUI   bool
	duration time.Duration // 0 runs until interrupted

	logger  *logging.Logger
	kernel  *rtos.Kernel
	sink    *display.Sink
	bus     *event.Bus
	sup     *supervisor.Supervisor
	harness *blockq.Harness
}

func newSession(cfg *config.Config, out io.Writer, useTUI bool) (*session, error) {
	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		l, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}

	// The dashboard owns the screen; messages are only kept for its panel.
	var sinkOut io.Writer
	if cfg.Display.Enabled && !useTUI {
		sinkOut = out
	}
	sink := display.New(sinkOut, display.Config{
		BufferSize: cfg.Display.BufferSize,
		History:    cfg.Display.History,
	}, logger)

	bus := event.NewBus(event.WithLogger(logger))
	bus.SubscribeAll(func(e event.Event) {
		logger.Debug("event", "type", e.EventType())
	})

	sup := supervisor.New(bus,
		supervisor.WithInterval(cfg.Supervisor.PollInterval()),
		supervisor.WithLogger(logger),
	)
	kernel := rtos.NewKernel(
		rtos.WithTimeSlice(cfg.Kernel.TimeSlice()),
		rtos.WithLogger(logger),
	)
	h := blockq.New(blockq.NewRuntime(kernel),
		blockq.WithDisplay(sink),
		blockq.WithErrorCallback(sup.ReportError),
		blockq.WithGoalCallback(sup.ReportGoal),
		blockq.WithLogger(logger),
	)

	return &session{
		cfg:      cfg,
		out:      out,
		useTUI:   useTUI,
		duration: cfg.Run.Duration(),
		logger:   logger,
		kernel:   kernel,
		sink:     sink,
		bus:      bus,
		sup:      sup,
		harness:  h,
	}, nil
}

// run starts the harness, waits for a stop condition, then writes the final
// report. It returns errUnhealthy if the run was not healthy.
func (s *session) run(ctx context.Context) error {
	defer func() { _ = s.logger.Close() }()

	priority := rtos.Priority(s.cfg.Harness.Priority)
	if err := s.harness.StartAll(priority); err != nil {
		_ = s.kernel.Shutdown()
		_ = s.sink.Close()
		if errors.IsFatal(err) {
			s.logger.Error("harness startup failed",
				"error", err, "severity", errors.GetSeverity(err).String())
			s.bus.Publish(event.NewHarnessStoppedEvent("startup failed"))
			return errors.Wrap(err, "start harness")
		}
		return err
	}
	s.bus.Publish(event.NewHarnessStartedEvent(int(priority), len(s.harness.Snapshot())))

	base := ctx
	if d := s.duration; d > 0 {
		var cancelTimeout context.CancelFunc
		base, cancelTimeout = context.WithTimeout(ctx, d)
		defer cancelTimeout()
	}
	runCtx, cancel := context.WithCancel(base)
	defer cancel()

	var goalHit atomic.Bool
	var wg conc.WaitGroup
	wg.Go(func() { s.sup.Start(runCtx, s.harness) })
	if s.cfg.Run.StopOnGoal {
		wg.Go(func() {
			select {
			case <-s.sup.GoalReached():
				goalHit.Store(true)
				cancel()
			case <-runCtx.Done():
			}
		})
	}

	var runErr error
	if s.useTUI {
		model := tui.New(tui.Config{
			Refresh:      s.cfg.TUI.RefreshInterval(),
			MessageLines: s.cfg.TUI.MessageLines,
		}, s.harness, s.sup, s.sink)
		runErr = tui.Run(runCtx, model)
	} else {
		<-runCtx.Done()
	}

	var reason string
	switch {
	case goalHit.Load():
		reason = stopGoal
	case ctx.Err() != nil:
		reason = stopInterrupted
	case base.Err() != nil:
		reason = stopDuration
	default:
		reason = stopDashboard
	}
	cancel()
	s.sup.Stop()
	wg.Wait()

	return errors.Join(runErr, s.finish(reason))
}

// finish stops the tasks and writes the final report.
func (s *session) finish(reason string) error {
	// A run shorter than one poll interval still gets a verdict.
	if s.sup.Status().Polls == 0 {
		s.sup.Poll(s.harness)
	}
	tasks := s.harness.Snapshot()
	status := s.sup.Status()

	s.harness.StopAll()
	shutdownErr := s.kernel.Shutdown()
	_ = s.sink.Close()
	s.bus.Publish(event.NewHarnessStoppedEvent(reason))
	s.logger.Info("run finished",
		"reason", reason,
		"healthy", status.Healthy(),
		"dropped_messages", s.sink.Dropped(),
	)

	format, err := report.ParseFormat(s.cfg.Run.Format)
	if err != nil {
		return err
	}
	r := report.Build(tasks, status)
	if err := r.Filter(s.cfg.Run.Filter); err != nil {
		return err
	}

	if format == report.FormatText {
		fmt.Fprintf(s.out, "\nstopped: %s\n\n", reason)
		if err := s.harness.PrintCounters(s.out); err != nil {
			return err
		}
		fmt.Fprintln(s.out)
	}
	if err := report.Encode(s.out, r, format); err != nil {
		return err
	}

	if shutdownErr != nil {
		return shutdownErr
	}
	if !status.Healthy() {
		return errUnhealthy
	}
	return nil
}
