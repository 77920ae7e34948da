// Package eventlog provides EventSink implementations that persist the
// engine's append-only event records outside the process. The engine itself
// performs no I/O; callers attach a sink to export every applied event.
package eventlog
