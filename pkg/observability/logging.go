package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/cohort/pkg/domain"
)

// LoggingHooks logs every lifecycle event. State entries and rewinds are
// logged at debug level; completions at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_enter",
				"person", e.PersonID,
				"module", e.Module,
				"from", e.From,
				"state", e.State,
				"kind", e.Kind,
				"at", e.Time,
			)
		},
		OnRewind: func(ctx context.Context, e *domain.RewindEvent) {
			logger.DebugContext(ctx, "rewind",
				"person", e.PersonID,
				"module", e.Module,
				"at", e.Time,
				"target", e.Target,
				"depth", e.Depth,
			)
		},
		OnComplete: func(ctx context.Context, e *domain.CompleteEvent) {
			logger.InfoContext(ctx, "module_complete",
				"person", e.PersonID,
				"module", e.Module,
				"state", e.State,
				"at", e.Time,
			)
		},
	}
}
