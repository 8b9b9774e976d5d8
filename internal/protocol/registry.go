// Package protocol holds the rule table of the experimental protocols: for each
// protocol and purpose, which files belong to the train, enroll or probe set.
//
// The table is data, not code. It ships as protocols.yaml and can be replaced
// by a file with the same schema.
package protocol

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/andresmejia3/fargo/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed protocols.yaml
var defaultTable []byte

const modalityPlaceholder = "{modality}"

// Protocol is one named experiment configuration.
type Protocol struct {
	Name     string
	Modality types.Modality
	Train    Rule
	Enroll   Rule
	Probe    Rule
}

// Rule returns the rule of a purpose.
func (p Protocol) Rule(purpose types.Purpose) (Rule, error) {
	switch purpose {
	case types.PurposeTrain:
		return p.Train, nil
	case types.PurposeEnroll:
		return p.Enroll, nil
	case types.PurposeProbe:
		return p.Probe, nil
	}
	return Rule{}, fmt.Errorf("%w: %q", types.ErrUnknownPurpose, purpose)
}

// Registry is an immutable, ordered set of protocols.
type Registry struct {
	protocols []Protocol
	byName    map[string]int
}

type tableEntry struct {
	Name       string           `yaml:"name"`
	Modalities []types.Modality `yaml:"modalities"`
	Train      Rule             `yaml:"train"`
	Enroll     Rule             `yaml:"enroll"`
	Probe      Rule             `yaml:"probe"`
}

type table struct {
	// Rules only hosts YAML anchors shared by the entries.
	Rules     map[string]Rule `yaml:"rules"`
	Protocols []tableEntry    `yaml:"protocols"`
}

// Default returns the registry of the public release.
func Default() *Registry {
	r, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded protocol table is invalid: %v", err))
	}
	return r
}

// LoadFile reads a rule table from path. An empty path yields Default.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol table: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a rule table.
func Parse(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var t table
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid protocol table: %w", err)
	}
	if len(t.Protocols) == 0 {
		return nil, errors.New("protocol table defines no protocols")
	}

	r := &Registry{byName: make(map[string]int)}
	for _, e := range t.Protocols {
		if e.Name == "" {
			return nil, errors.New("protocol entry without name")
		}
		if len(e.Modalities) == 0 {
			return nil, fmt.Errorf("protocol %q lists no modality", e.Name)
		}
		if len(e.Modalities) > 1 && !strings.Contains(e.Name, modalityPlaceholder) {
			return nil, fmt.Errorf("protocol %q lists several modalities but has no %s placeholder", e.Name, modalityPlaceholder)
		}
		for _, raw := range e.Modalities {
			m, err := types.ParseModality(string(raw))
			if err != nil {
				return nil, fmt.Errorf("protocol %q: %w", e.Name, err)
			}
			p := Protocol{
				Name:     strings.ReplaceAll(e.Name, modalityPlaceholder, string(m)),
				Modality: m,
			}
			if err := p.setRules(e, m); err != nil {
				return nil, fmt.Errorf("protocol %q: %w", p.Name, err)
			}
			if _, dup := r.byName[p.Name]; dup {
				return nil, fmt.Errorf("duplicate protocol %q", p.Name)
			}
			r.byName[p.Name] = len(r.protocols)
			r.protocols = append(r.protocols, p)
		}
	}
	return r, nil
}

// setRules normalizes the entry's rules and checks the cross-protocol
// invariants: the world set is controlled frontal shots of both recordings,
// the enroll set is the controlled frontal shots of the first recording, on
// every device.
func (p *Protocol) setRules(e tableEntry, m types.Modality) error {
	var err error
	if p.Train, err = e.Train.withModality(m).normalize(); err != nil {
		return fmt.Errorf("train rule: %w", err)
	}
	if p.Enroll, err = e.Enroll.withModality(m).normalize(); err != nil {
		return fmt.Errorf("enroll rule: %w", err)
	}
	if p.Probe, err = e.Probe.withModality(m).normalize(); err != nil {
		return fmt.Errorf("probe rule: %w", err)
	}
	if !p.Train.Equal(WorldRule(m)) {
		return errors.New("train rule must select controlled frontal shots of recordings 0 and 1 on all devices")
	}
	if !p.Enroll.Equal(EnrollRule(m)) {
		return errors.New("enroll rule must select controlled frontal shots of recording 0 on all devices")
	}
	return nil
}

// Names lists protocol names in table order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.protocols))
	for i, p := range r.protocols {
		names[i] = p.Name
	}
	return names
}

// Protocols returns all protocols in table order.
func (r *Registry) Protocols() []Protocol {
	return slices.Clone(r.protocols)
}

// Lookup returns the protocol with the given name.
func (r *Registry) Lookup(name string) (Protocol, error) {
	i, ok := r.byName[name]
	if !ok {
		return Protocol{}, fmt.Errorf("%w: %q", types.ErrUnknownProtocol, name)
	}
	return r.protocols[i], nil
}

// RuleFor returns the filter rule of a protocol for a purpose.
func (r *Registry) RuleFor(name string, purpose types.Purpose) (Rule, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return Rule{}, err
	}
	return p.Rule(purpose)
}

// Purposes lists the (group, purpose) file sets a protocol defines.
func (r *Registry) Purposes(name string) ([]types.ProtocolPurpose, error) {
	if _, err := r.Lookup(name); err != nil {
		return nil, err
	}
	var out []types.ProtocolPurpose
	for _, g := range types.Groups {
		for _, p := range types.Purposes {
			if Applies(g, p) {
				out = append(out, types.ProtocolPurpose{Protocol: name, Group: g, Purpose: p})
			}
		}
	}
	return out, nil
}

// Applies reports whether a group has a file set for a purpose: world only
// trains, dev and eval only enroll and probe.
func Applies(g types.Group, p types.Purpose) bool {
	if g == types.GroupWorld {
		return p == types.PurposeTrain
	}
	return p == types.PurposeEnroll || p == types.PurposeProbe
}
