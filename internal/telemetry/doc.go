// Package telemetry wires OpenTelemetry tracing for a CLI run.
//
// Tracing is off unless telemetry.trace is set, in which case spans are
// written as JSON lines to <log_dir>/traces.jsonl. Packages obtain tracers
// through telemetry.Tracer; with tracing disabled those are no-ops.
package telemetry
