package tracing

import (
	"testing"

	"github.com/smallbiznis/offerly/internal/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestModuleInstallsGlobalsOnStart(t *testing.T) {
	app := fxtest.New(t,
		fx.Supply(config.Config{}),
		fx.Provide(zap.NewNop),
		Module,
	)
	app.RequireStart()
	defer app.RequireStop()

	want := map[string]bool{"traceparent": false, "tracestate": false, "baggage": false}
	for _, field := range otel.GetTextMapPropagator().Fields() {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("propagator does not carry %q", field)
		}
	}
}
