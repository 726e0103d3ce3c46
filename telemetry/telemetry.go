// Package telemetry manages the tracing and profiling agents the engine
// reports to. Tracing covers the per-tick spans the app emits; profiling
// streams CPU and heap profiles to the agent.
package telemetry

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	ddotel "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/opentelemetry"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// Manager owns the shutdown hooks of whichever agents were enabled.
type Manager struct {
	tracerShutdownFunc   func() error
	profilerShutdownFunc func()
	tracerProvider       *ddotel.TracerProvider
}

// New wires up the requested agents. A manager with both disabled is valid
// and shuts down as a no-op.
func New(enableTrace bool, enableProfiler bool) (*Manager, error) {
	tm := Manager{
		tracerShutdownFunc: nil,
		tracerProvider:     nil,
	}

	tm.setupPropagator()

	if enableTrace {
		tm.setupTrace()
	}

	if enableProfiler {
		if err := tm.setupProfiler(); err != nil {
			return nil, errors.Join(err, tm.Shutdown())
		}
	}

	return &tm, nil
}

// Shutdown calls the cleanup functions registered on the manager. Each
// registered cleanup is invoked once and the errors from the calls are joined.
func (tm *Manager) Shutdown() error {
	var errs []error
	if tm.tracerShutdownFunc != nil {
		errs = append(errs, tm.tracerShutdownFunc())
		tm.tracerShutdownFunc = nil
	}
	if tm.profilerShutdownFunc != nil {
		tm.profilerShutdownFunc()
		tm.profilerShutdownFunc = nil
	}
	return errors.Join(errs...)
}

func (tm *Manager) setupPropagator() {
	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(prop)
}

func (tm *Manager) setupTrace() {
	tm.tracerProvider = ddotel.NewTracerProvider(tracer.WithRuntimeMetrics())
	tm.tracerShutdownFunc = tm.tracerProvider.Shutdown
	otel.SetTracerProvider(tm.tracerProvider)
}

func (tm *Manager) setupProfiler() error {
	err := profiler.Start(
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			// Block, mutex, and goroutine profiles stay off to keep the
			// overhead out of the tick loop.
		),
	)
	if err != nil {
		return err
	}

	tm.profilerShutdownFunc = profiler.Stop

	return nil
}
