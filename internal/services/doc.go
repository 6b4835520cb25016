// Package services defines shared utilities consumed by the lip-sync workflow
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and language profiles
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent command exit codes (usage vs runtime).
package services
