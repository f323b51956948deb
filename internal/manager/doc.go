// Package manager provides lifecycle, admission and coordination for remote
// model sessions. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: internal state types (State, Session, Snapshot).
//   - errors.go: error types and helpers (IsTooBusy, IsSessionNotFound).
//   - queue_admission.go: per-session queueing and operation admission.
//   - sessions.go: Create and the per-session operations (update, adapt, sample, state).
//   - delete.go: graceful drain and release of sessions.
//   - engine_ops.go: module, factory and RNG operations on the shared registry.
//   - status_report.go: Status/Snapshot reporting helpers.
//   - metrics.go: Prometheus collectors.
//
// Each session runs at most one operation at a time. Further requests wait in
// a bounded queue and are rejected as too busy when the queue is full or the
// wait exceeds MaxWait.
package manager
