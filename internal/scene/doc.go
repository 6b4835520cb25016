// Package scene persists a rig in a SQLite database so lip-sync runs can
// target it across CLI invocations.
//
// A Scene implements rig.Rig. Controls, their attributes, keyed values, and
// the scene soundtrack live in one database file. Open takes an exclusive
// file lock beside the database; a second process opening the same scene
// gets ErrSceneLocked instead of interleaving keyframes with the first.
package scene
