// Package conformance exercises the proc package from outside the test
// process. Every scenario spawns the proc-oracle fixture binary and
// checks the protocol line it prints against what the kernel reports,
// so session, group, and signal mutations happen only in the fixture,
// never in the test runtime.
//
// The package has no importable API; everything lives in the tests.
package conformance
