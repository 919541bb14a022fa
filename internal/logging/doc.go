// Package logging provides structured logging for blockq runs.
//
// This package wraps Go's log/slog to write JSON lines either to a file in a
// log directory or to stderr. Child loggers carry persistent attributes so
// that every line emitted by a task can be filtered by scenario and task name.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/var/log/blockq", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	taskLog := logger.WithComponent("harness").WithScenario(1).WithTask("QConsB1")
//	taskLog.Warn("sequence mismatch", "expected", 304, "received", 306)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"sequence mismatch","component":"harness","scenario":1,"task":"QConsB1","expected":304,"received":306}
//
// # Testing
//
// Use [NopLogger] to discard all output, or [NewWriterLogger] with a
// bytes.Buffer to assert on emitted lines.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package logging
