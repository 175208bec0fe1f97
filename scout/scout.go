// Package scout runs the polling loop shared by every site scout.
package scout

import (
	"context"

	"github.com/aluiziolira/scout-bot/models"
)

// Scout is one site-specific search. The loop calls PerformSearch and
// ParseResults once per attempt and exactly one of the handlers per run.
type Scout interface {
	Name() string
	PerformSearch(ctx context.Context) (string, error)
	ParseResults(markup string) (models.Outcome, error)
	HandleSuccess(ctx context.Context, run uint64, outcome models.Outcome)
	HandleFailure(ctx context.Context, run uint64, maxAttempts int)
}
