package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTraceContextPropagation checks that incoming traceparent headers are joined
func TestTraceContextPropagation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(ServiceServer))
	r.HandleFunc("/api/today", func(w http.ResponseWriter, r *http.Request) {
		_, span := Tracer().Start(r.Context(), "load_today")
		span.End()
		w.WriteHeader(http.StatusOK)
	})

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	tests := []struct {
		name        string
		traceParent string
	}{
		{"new trace", ""},
		{"joined trace", "00-" + traceID + "-00f067aa0ba902b7-01"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest("GET", "/api/today", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status OK, got %d", rr.Code)
			}
			if err := tp.ForceFlush(context.Background()); err != nil {
				t.Errorf("Failed to flush tracer provider: %v", err)
			}

			spans := exporter.GetSpans()
			if len(spans) != 2 {
				t.Fatalf("Expected 2 spans, got %d", len(spans))
			}
			if spans[0].SpanContext.TraceID() != spans[1].SpanContext.TraceID() {
				t.Error("handler span should share the request trace")
			}
			if tt.traceParent != "" && spans[0].SpanContext.TraceID().String() != traceID {
				t.Errorf("trace id = %s, want %s", spans[0].SpanContext.TraceID(), traceID)
			}
		})
	}
}
