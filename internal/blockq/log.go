package blockq

import (
	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/logging"
)

// logError logs err at the level matching its severity.
func logError(l *logging.Logger, msg string, err error) {
	sev := errors.GetSeverity(err)
	args := []any{"error", err, "severity", sev.String()}
	switch {
	case sev >= errors.SeverityError:
		l.Error(msg, args...)
	case sev == errors.SeverityWarning:
		l.Warn(msg, args...)
	case sev == errors.SeverityInfo:
		l.Info(msg, args...)
	default:
		l.Debug(msg, args...)
	}
}
