package telemetry

import (
	"context"
	"testing"
)

func TestInitDisabledByDefault(t *testing.T) {
	t.Setenv("WT_OTEL_ENABLED", "")
	if Enabled() {
		t.Fatal("telemetry should be off by default")
	}
	if err := Init(context.Background(), "wt-test", "dev"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Even the no-op providers hand out working instruments, so
	// instrumented code paths never need an enabled check.
	ctx, span := Tracer("").Start(context.Background(), "op")
	span.End()
	counter, err := Meter("").Int64Counter("ops")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}
	counter.Add(ctx, 1)

	Shutdown(context.Background())
}

func TestEnabledFollowsEnv(t *testing.T) {
	t.Setenv("WT_OTEL_ENABLED", "true")
	if !Enabled() {
		t.Fatal("WT_OTEL_ENABLED=true should enable telemetry")
	}
	t.Setenv("WT_OTEL_ENABLED", "1")
	if Enabled() {
		t.Fatal("only the literal \"true\" enables telemetry")
	}
}
