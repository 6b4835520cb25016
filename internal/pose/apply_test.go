package pose

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"lipsync/internal/rig"
)

func faceRig() *rig.Memory {
	m := rig.NewMemory()
	m.Define("jaw_ctrl",
		rig.AttributeDef{Name: "translateY", Value: 0.5, Keyable: true},
		rig.AttributeDef{Name: "visibility", Value: 1, Keyable: true, Locked: true},
	)
	m.Define("lip_ctrl", rig.AttributeDef{Name: "pucker", Value: 0.2, Keyable: true})
	m.Define("brow_ctrl", rig.AttributeDef{Name: "raise", Keyable: true})
	return m
}

func TestCaptureReadsKeyableUnlocked(t *testing.T) {
	m := faceRig()
	snap, err := Capture(context.Background(), m, []string{"jaw_ctrl", "lip_ctrl", "jaw_ctrl"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	want := Snapshot{Controls: []Control{
		{Name: "jaw_ctrl", Attributes: []Attribute{{Name: "translateY", Value: 0.5}}},
		{Name: "lip_ctrl", Attributes: []Attribute{{Name: "pucker", Value: 0.2}}},
	}}
	if !snap.Equal(want) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(m.Keyframes()) != 0 {
		t.Fatal("capture must not key the rig")
	}
}

func TestCaptureUnknownControl(t *testing.T) {
	_, err := Capture(context.Background(), faceRig(), []string{"nose_ctrl"})
	if !errors.Is(err, rig.ErrUnknownControl) {
		t.Fatalf("expected ErrUnknownControl, got %v", err)
	}
}

func TestApplyIsBestEffort(t *testing.T) {
	m := faceRig()
	snap := Snapshot{Controls: []Control{
		{Name: "jaw_ctrl", Attributes: []Attribute{{Name: "translateY", Value: -1}, {Name: "visibility", Value: 0}}},
		{Name: "gone_ctrl", Attributes: []Attribute{{Name: "x", Value: 1}}},
		{Name: "lip_ctrl", Attributes: []Attribute{{Name: "pucker", Value: 0.9}}},
	}}
	result := Apply(context.Background(), m, snap)

	if !reflect.DeepEqual(result.Controls, []string{"jaw_ctrl", "gone_ctrl", "lip_ctrl"}) {
		t.Fatalf("expected snapshot control set, got %v", result.Controls)
	}
	if result.Applied != 2 || len(result.Failures) != 2 {
		t.Fatalf("expected 2 applied and 2 failures, got %d/%d", result.Applied, len(result.Failures))
	}
	if !errors.Is(result.Err(), rig.ErrLockedAttribute) || !errors.Is(result.Err(), rig.ErrUnknownControl) {
		t.Fatalf("expected joined failures, got %v", result.Err())
	}
	if v, _ := m.GetAttribute(context.Background(), "lip_ctrl", "pucker"); v != 0.9 {
		t.Fatalf("expected later assignment to be applied, got %v", v)
	}
	if v, _ := m.GetAttribute(context.Background(), "brow_ctrl", "raise"); v != 0 {
		t.Fatal("apply must not touch controls outside the snapshot")
	}
}

func TestApplyCleanResultHasNilErr(t *testing.T) {
	m := faceRig()
	snap, _ := Capture(context.Background(), m, []string{"lip_ctrl"})
	if err := Apply(context.Background(), m, snap).Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
