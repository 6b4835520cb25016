// Package preflight provides readiness checks for the aligner install and
// the filesystem paths lipsync writes to.
//
// These checks run in two contexts:
//   - The generate workflow calls RunAll before staging anything, so a
//     missing aligner fails fast instead of after the copy.
//   - The CLI "lipsync doctor" command prints every result.
//
// CheckAudio is advisory: it never fails a run, it only reports formats the
// acoustic models were not trained on.
package preflight
