// Package mfa wraps the Montreal Forced Aligner command line.
//
// The client prepares the dialect-specific invocation, streams combined
// stdout/stderr lines as ProgressEvents, and locates the TextGrid the aligner
// wrote. Command execution is abstracted behind Executor so tests can run
// without an aligner install.
package mfa
