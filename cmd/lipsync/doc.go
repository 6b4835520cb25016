// Command lipsync aligns dialogue audio against its transcript and keys mouth
// poses onto a scene rig, one key pair per aligned phone.
//
// Typical use:
//
//	lipsync config init
//	lipsync rig define jaw_ctrl rotateX=0 translateY=0
//	lipsync pose save AI jaw_ctrl
//	lipsync generate --audio line.wav --transcript line.txt
//	lipsync rig keys
package main
