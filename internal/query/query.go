// Package query resolves (protocol, groups, purposes, model ids) requests into
// file lists over an immutable catalog.
package query

import (
	"fmt"
	"slices"
	"sort"

	"github.com/andresmejia3/fargo/internal/catalog"
	"github.com/andresmejia3/fargo/internal/protocol"
	"github.com/andresmejia3/fargo/internal/types"
)

// Engine answers queries. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	registry *protocol.Registry
}

func New(c *catalog.Catalog, r *protocol.Registry) *Engine {
	return &Engine{catalog: c, registry: r}
}

// Request selects files of a protocol. Empty Groups or Purposes mean all of
// them. ModelIDs restricts enrollment files to those clients; probes are
// always returned in full (dense probing).
type Request struct {
	Protocol string
	Groups   []string
	Purposes []string
	ModelIDs []int
}

// Objects returns the files selected by req, without duplicates, ordered by
// client id and then by catalog order. No match is an empty result, not an error.
func (e *Engine) Objects(req Request) ([]types.File, error) {
	p, err := e.registry.Lookup(req.Protocol)
	if err != nil {
		return nil, err
	}
	groups, err := parseGroups(req.Groups)
	if err != nil {
		return nil, err
	}
	purposes, err := parsePurposes(req.Purposes)
	if err != nil {
		return nil, err
	}

	clientGroup := make(map[int]types.Group)
	for _, cl := range e.catalog.Clients() {
		clientGroup[cl.ID] = cl.Group
	}

	var selected []types.File
	for _, g := range groups {
		for _, purpose := range purposesFor(g, purposes) {
			rule, err := p.Rule(purpose)
			if err != nil {
				return nil, err
			}
			restrict := purpose == types.PurposeEnroll && len(req.ModelIDs) > 0
			selected = append(selected, e.catalog.FilesBy(func(f types.File) bool {
				if clientGroup[f.ClientID] != g || !rule.Match(f) {
					return false
				}
				return !restrict || slices.Contains(req.ModelIDs, f.ClientID)
			})...)
		}
	}

	out := dedupe(selected)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

// purposesFor resolves the purposes a group contributes. The world group
// contributes its train set once, whatever purposes were asked for.
func purposesFor(g types.Group, requested []types.Purpose) []types.Purpose {
	if g == types.GroupWorld {
		return []types.Purpose{types.PurposeTrain}
	}
	var out []types.Purpose
	for _, p := range requested {
		if protocol.Applies(g, p) {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(files []types.File) []types.File {
	seen := make(map[int]struct{}, len(files))
	out := make([]types.File, 0, len(files))
	for _, f := range files {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Clients returns the clients of the given groups, ordered by id.
func (e *Engine) Clients(groups []string) ([]types.Client, error) {
	gs, err := parseGroups(groups)
	if err != nil {
		return nil, err
	}
	var out []types.Client
	for _, cl := range e.catalog.Clients() {
		if slices.Contains(gs, cl.Group) {
			out = append(out, cl)
		}
	}
	return out, nil
}

// Client returns one client by id.
func (e *Engine) Client(id int) (types.Client, error) {
	return e.catalog.Client(id)
}

// ModelIDs returns the ascending client ids of the given groups. It does not
// depend on any protocol.
func (e *Engine) ModelIDs(groups []string) ([]int, error) {
	clients, err := e.Clients(groups)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(clients))
	for i, cl := range clients {
		ids[i] = cl.ID
	}
	return ids, nil
}

// ProtocolNames lists every registered protocol.
func (e *Engine) ProtocolNames() []string {
	return e.registry.Names()
}

// ProtocolPurposes lists the (group, purpose) file sets of a protocol.
func (e *Engine) ProtocolPurposes(name string) ([]types.ProtocolPurpose, error) {
	return e.registry.Purposes(name)
}

func parseGroups(tokens []string) ([]types.Group, error) {
	if len(tokens) == 0 {
		return slices.Clone(types.Groups), nil
	}
	var out []types.Group
	for _, tok := range tokens {
		g, err := types.ParseGroup(tok)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, g) {
			out = append(out, g)
		}
	}
	return out, nil
}

func parsePurposes(tokens []string) ([]types.Purpose, error) {
	if len(tokens) == 0 {
		return slices.Clone(types.Purposes), nil
	}
	var out []types.Purpose
	for _, tok := range tokens {
		p, err := types.ParsePurpose(tok)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// String is used by the CLI to echo a request.
func (r Request) String() string {
	return fmt.Sprintf("protocol=%s groups=%v purposes=%v model_ids=%v", r.Protocol, r.Groups, r.Purposes, r.ModelIDs)
}
