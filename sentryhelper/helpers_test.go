package sentryhelper

import (
	"context"
	"testing"

	sentry "github.com/getsentry/sentry-go"
)

func TestStartJobTransactionIsolatesHub(t *testing.T) {
	ctx, tx := StartJobTransaction(context.Background(), "price_check")
	defer tx.Finish()

	if tx.Name != "job.price_check" {
		t.Errorf("transaction name = %q", tx.Name)
	}
	if HubFromContext(ctx) == sentry.CurrentHub() {
		t.Error("job context should carry a cloned hub")
	}
}

func TestHubFromContextFallback(t *testing.T) {
	if HubFromContext(context.Background()) != sentry.CurrentHub() {
		t.Error("a plain context should fall back to the current hub")
	}
}
