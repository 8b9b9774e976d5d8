package protocol

import (
	"fmt"
	"slices"

	"github.com/andresmejia3/fargo/internal/types"
)

// Rule is a conjunction of set predicates over file fields. An empty set matches anything.
type Rule struct {
	Modality    types.Modality    `yaml:"-"`
	Light       []types.Light     `yaml:"light"`
	Pose        []types.Pose      `yaml:"pose"`
	Orientation []string          `yaml:"orientation"`
	Recording   []types.Recording `yaml:"recording"`
	Device      []types.Device    `yaml:"device"`
}

// WorldRule is the train set shared by every protocol of a modality.
func WorldRule(m types.Modality) Rule {
	return Rule{
		Modality:  m,
		Light:     []types.Light{types.LightControlled},
		Pose:      []types.Pose{types.PoseFrontal},
		Recording: []types.Recording{0, 1},
	}
}

// EnrollRule is the enroll set shared by every protocol of a modality.
func EnrollRule(m types.Modality) Rule {
	return Rule{
		Modality:  m,
		Light:     []types.Light{types.LightControlled},
		Pose:      []types.Pose{types.PoseFrontal},
		Recording: []types.Recording{0},
	}
}

// Match reports whether f satisfies every predicate of the rule.
func (r Rule) Match(f types.File) bool {
	return (r.Modality == "" || f.Modality == r.Modality) &&
		in(r.Light, f.Light) &&
		in(r.Pose, f.Pose) &&
		in(r.Orientation, f.Orientation) &&
		in(r.Recording, f.Recording) &&
		in(r.Device, f.Device)
}

// Equal compares rules as sets, ignoring order and repeated values.
func (r Rule) Equal(o Rule) bool {
	return r.Modality == o.Modality &&
		sameSet(r.Light, o.Light) &&
		sameSet(r.Pose, o.Pose) &&
		sameSet(r.Orientation, o.Orientation) &&
		sameRecordings(r.Recording, o.Recording) &&
		sameDevices(r.Device, o.Device)
}

func (r Rule) String() string {
	return fmt.Sprintf("modality=%s light=%v pose=%v orientation=%v recording=%v device=%v",
		r.Modality, r.Light, r.Pose, r.Orientation, r.Recording, r.Device)
}

func (r Rule) withModality(m types.Modality) Rule {
	r.Modality = m
	return r
}

// normalize checks every value and rewrites devices to their canonical form.
func (r Rule) normalize() (Rule, error) {
	for _, l := range r.Light {
		if _, err := types.ParseLight(string(l)); err != nil {
			return Rule{}, err
		}
	}
	for _, p := range r.Pose {
		if _, err := types.ParsePose(string(p)); err != nil {
			return Rule{}, err
		}
	}
	for _, rec := range r.Recording {
		if _, err := types.ParseRecording(rec.String()); err != nil {
			return Rule{}, err
		}
	}
	devices := make([]types.Device, 0, len(r.Device))
	for _, d := range r.Device {
		canonical, err := types.ParseDevice(string(d))
		if err != nil {
			return Rule{}, err
		}
		devices = append(devices, canonical)
	}
	r.Device = devices
	return r, nil
}

func in[T comparable](set []T, v T) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

func sameSet[T comparable](a, b []T) bool {
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	for _, v := range b {
		if !slices.Contains(a, v) {
			return false
		}
	}
	return true
}

// sameRecordings treats the full set {0,1} like the empty set.
func sameRecordings(a, b []types.Recording) bool {
	all := []types.Recording{0, 1}
	if len(a) == 0 {
		a = all
	}
	if len(b) == 0 {
		b = all
	}
	return sameSet(a, b)
}

// sameDevices treats the full device set like the empty set.
func sameDevices(a, b []types.Device) bool {
	all := []types.Device{types.DeviceLaptop, types.DeviceMobile}
	if len(a) == 0 {
		a = all
	}
	if len(b) == 0 {
		b = all
	}
	return sameSet(a, b)
}
