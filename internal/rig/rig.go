package rig

import (
	"context"
	"errors"
)

var (
	ErrUnknownControl   = errors.New("unknown control")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrLockedAttribute  = errors.New("attribute is locked")
)

// Tangent is the interpolation mode on either side of a key. The compiler
// always keys with TangentSpline.
type Tangent string

const TangentSpline Tangent = "spline"

// Rig is the control surface the timeline compiler drives.
type Rig interface {
	// ListKeyableAttributes returns the keyable, unlocked attributes of control in definition order.
	ListKeyableAttributes(ctx context.Context, control string) ([]string, error)
	GetAttribute(ctx context.Context, control, attribute string) (float64, error)
	SetAttribute(ctx context.Context, control, attribute string, value float64) error
	// SetKeyframe keys every keyable attribute of controls at time using their current values.
	SetKeyframe(ctx context.Context, controls []string, time float64, tangent Tangent) error
}

// AttributeDef describes one attribute when defining a control.
type AttributeDef struct {
	Name    string
	Value   float64
	Keyable bool
	Locked  bool
}

// Keyframe is one keyed attribute value.
type Keyframe struct {
	Control    string
	Attribute  string
	Time       float64
	Value      float64
	InTangent  Tangent
	OutTangent Tangent
}
