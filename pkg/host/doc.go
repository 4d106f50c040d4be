// Package host is the receiving side of lanremote.
//
// A Service answers discovery probes, listens for envelopes on the command
// port over both UDP (low-latency) and TCP (reliable), authenticates each
// one with the key derived from the host's pairing code, rejects stale or
// replayed messages, and hands valid commands to an Executor.
//
// Input injection is platform specific and out of scope; LogExecutor only
// records what it would do.
package host
