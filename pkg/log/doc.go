// Package log provides protocol event capture for lanremote.
//
// Protocol capture is separate from operational logging (slog): it records a
// machine-readable trace of discovery traffic, transport frames, envelope
// dispatch and session state changes for later inspection with
// lanremote-log.
//
// # Basic Usage
//
//	// Console during development
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Binary capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("remote.rlog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
//   - Transport: frame sizes (FrameEvent)
//   - Wire: envelopes sent or received (EnvelopeEvent)
//   - Session: state changes (StateChangeEvent)
//   - Discovery: probes and offers (DiscoveryEvent)
//
// Errors at any layer have a dedicated ErrorEventData payload.
//
// Session keys are never captured; events carry the key fingerprint at most.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events (.rlog).
package log
