// Package deps reports whether the external binaries and data files lipsync
// shells out to are installed.
package deps
