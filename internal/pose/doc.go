// Package pose captures, persists, and replays rig poses.
//
// A Snapshot is an ordered mapping of control name to ordered attribute
// values. Pose documents are UTF-8 JSON objects indented with four spaces;
// key order is preserved on both read and write and non-ASCII names are
// written verbatim, so files stay diffable and interchangeable with the
// pose files artists already keep.
package pose
