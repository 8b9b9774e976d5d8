package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Group partitions clients into the background set and the two verification sets.
type Group string

const (
	GroupWorld Group = "world"
	GroupDev   Group = "dev"
	GroupEval  Group = "eval"
)

// Groups lists every group in canonical order.
var Groups = []Group{GroupWorld, GroupDev, GroupEval}

// ParseGroup accepts "world", "dev", "eval" and the legacy alias "train" for world.
func ParseGroup(s string) (Group, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "world", "train":
		return GroupWorld, nil
	case "dev":
		return GroupDev, nil
	case "eval":
		return GroupEval, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroup, s)
}

// Purpose is the role a file set plays in an experiment.
type Purpose string

const (
	PurposeTrain  Purpose = "train"
	PurposeEnroll Purpose = "enroll"
	PurposeProbe  Purpose = "probe"
)

// Purposes lists every purpose in canonical order.
var Purposes = []Purpose{PurposeTrain, PurposeEnroll, PurposeProbe}

func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(strings.ToLower(strings.TrimSpace(s))); p {
	case PurposeTrain, PurposeEnroll, PurposeProbe:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, s)
}

// Light is the illumination condition of a recording session.
type Light string

const (
	LightControlled Light = "controlled"
	LightDark       Light = "dark"
	LightOutdoor    Light = "outdoor"
)

func ParseLight(s string) (Light, error) {
	switch l := Light(s); l {
	case LightControlled, LightDark, LightOutdoor:
		return l, nil
	}
	return "", fmt.Errorf("unknown light condition %q", s)
}

// Device is the platform the camera was mounted on.
type Device string

const (
	DeviceLaptop Device = "laptop"
	DeviceMobile Device = "mobile"
)

// devicePrefix is the capture rig name prepended to device folders on disk.
const devicePrefix = "SR300-"

// ParseDevice accepts both "laptop" and the on-disk form "SR300-laptop".
func ParseDevice(s string) (Device, error) {
	switch d := Device(strings.TrimPrefix(s, devicePrefix)); d {
	case DeviceLaptop, DeviceMobile:
		return d, nil
	}
	return "", fmt.Errorf("unknown device %q", s)
}

// Recording is the index of a recording within a session.
type Recording int

func ParseRecording(s string) (Recording, error) {
	n, err := strconv.Atoi(s)
	if err != nil || (n != 0 && n != 1) {
		return 0, fmt.Errorf("unknown recording %q", s)
	}
	return Recording(n), nil
}

func (r Recording) String() string { return strconv.Itoa(int(r)) }

// Modality is the sensing channel of an image.
type Modality string

const (
	ModalityRGB   Modality = "rgb"
	ModalityNIR   Modality = "nir"
	ModalityDepth Modality = "depth"
)

func ParseModality(s string) (Modality, error) {
	switch m := Modality(strings.ToLower(s)); m {
	case ModalityRGB, ModalityNIR, ModalityDepth:
		return m, nil
	}
	return "", fmt.Errorf("unknown modality %q", s)
}

// ModalityFromStream maps a stream directory name (color, ir, depth) to its modality.
func ModalityFromStream(stream string) (Modality, error) {
	switch stream {
	case "color":
		return ModalityRGB, nil
	case "ir":
		return ModalityNIR, nil
	case "depth":
		return ModalityDepth, nil
	}
	return "", fmt.Errorf("unknown stream %q", stream)
}

// Pose is the head orientation of a shot.
type Pose string

const (
	PoseFrontal Pose = "frontal"
	PoseYaw     Pose = "yaw"
	PosePitch   Pose = "pitch"
)

func ParsePose(s string) (Pose, error) {
	switch p := Pose(s); p {
	case PoseFrontal, PoseYaw, PosePitch:
		return p, nil
	}
	return "", fmt.Errorf("unknown pose %q", s)
}

// PoseFromPath derives the pose from a relative path. Pitch wins when both substrings occur.
func PoseFromPath(rel string) Pose {
	pose := PoseFrontal
	if strings.Contains(rel, "yaw") {
		pose = PoseYaw
	}
	if strings.Contains(rel, "pitch") {
		pose = PosePitch
	}
	return pose
}
