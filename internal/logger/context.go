package logger

import (
	"context"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type ledgerKey struct{}

// WithLedger scopes ctx to a ledger: loggers built from it carry a ledger_id
// field and sentry events raised under it are tagged with the ledger id
func WithLedger(ctx context.Context, ledgerID string) context.Context {
	if id, ok := LedgerFromContext(ctx); ok && id == ledgerID {
		return ctx
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub = hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("ledger_id", ledgerID)
	})

	ctx = sentry.SetHubOnContext(ctx, hub)
	return context.WithValue(ctx, ledgerKey{}, ledgerID)
}

// LedgerFromContext returns the ledger id set by WithLedger
func LedgerFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ledgerKey{}).(string)
	return id, ok
}

func contextFields(ctx context.Context) []zap.Field {
	if id, ok := LedgerFromContext(ctx); ok {
		return []zap.Field{zap.String("ledger_id", id)}
	}
	return nil
}
