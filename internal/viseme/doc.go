// Package viseme maps phonetic labels onto mouth-shape categories and binds
// those categories to pose assets.
//
// A Classifier is a total function: every label, including the empty string,
// silence tokens, and labels the table has never seen, yields a Category.
// Unknown labels fall back to Rest. A Registry is an immutable ordered list
// of (Category, PoseRef) bindings resolved by exact category equality.
package viseme
