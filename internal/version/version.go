// Package version exposes the build version string reported by the
// version tool call and embedded in every note produced by this server.
package version

// String identifies the protocol revision notes are built against. Notes
// carrying a different string are rejected by desks on ingestion.
const String = "MOSAIC 2026.08"
