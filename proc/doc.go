// Package proc provides POSIX process-control primitives: spawning child
// processes, sending lifecycle signals, managing process groups and
// sessions, and decoding wait statuses into typed outcomes.
//
// The package is deliberately low-level and synchronous. A Handle is a
// capability token for one process; Wait blocks the calling goroutine
// until the kernel reports a state change for that process. There is no
// background monitoring and no caching of process-tree state: group and
// session membership are queried fresh from the OS on every call.
//
// Windows and other non-POSIX platforms are not supported.
//
// # Handles
//
// Spawn returns a Handle for the new child. Self returns a handle for the
// calling process, which is the only valid target for CreateSession.
// Adopt wraps a pid the caller learned out of band; adopted handles can be
// signaled and inspected but only children of the calling process can be
// waited on.
//
// A handle is reaped once Wait observes a terminal outcome (Exited or
// Signaled). After that the pid may be reused by the kernel, so every
// operation on a reaped handle fails with a typed no-such-process error
// instead of touching the OS.
//
// # Waiting
//
// At most one goroutine may wait on a given handle at a time. Concurrent
// waits on the same pid race at the kernel level; arbitrating that is the
// caller's responsibility, not this package's.
package proc
