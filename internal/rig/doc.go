// Package rig defines the control surface lip-sync drives: named controls
// carrying numeric attributes that can be set and keyed over time.
//
// Memory is a self-contained Rig used by tests and dry runs; the scene
// package provides the persistent implementation.
package rig
