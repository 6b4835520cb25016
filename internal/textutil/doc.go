// Package textutil provides small text helpers shared by the CLI and the
// profile catalogue: "did you mean" suggestions for mistyped names and
// filename sanitization for pose files and staging directories.
package textutil
