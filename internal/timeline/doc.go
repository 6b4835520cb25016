// Package timeline compiles phone intervals into a keyframe schedule.
//
// Compile walks the intervals in the order given. Each label is classified
// into a viseme, the viseme is resolved to a pose through the active
// language profile, the pose is applied to the rig, and a spline key is set
// at the interval's start and end. Intervals whose pose cannot be resolved or
// loaded are skipped with a reason; the rest of the transcript still
// compiles. The only fatal conditions are an empty interval list and a rig
// that refuses a keyframe.
package timeline
