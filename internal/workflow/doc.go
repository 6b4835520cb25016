// Package workflow runs the end-to-end generate pass.
//
// A Session captures one run's inputs (audio, transcript, language profile,
// config) and never changes after NewSession returns. Runner.Generate takes a
// Session through:
//
//	preflight -> staging -> transcript decode -> align -> parse -> compile
//
// The staging workspace is removed on every exit path. Runner.CompileTextGrid
// skips alignment and compiles an existing TextGrid against the scene.
package workflow
