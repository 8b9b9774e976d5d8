// Package catalog holds the authoritative set of clients and files of the database.
//
// A Catalog is immutable once built and may be shared by any number of
// concurrent readers.
package catalog

import (
	"fmt"
	"sort"

	"github.com/andresmejia3/fargo/internal/types"
)

// Catalog is an immutable snapshot of clients and their files.
type Catalog struct {
	clients  []types.Client
	files    []types.File
	byClient map[int]int
	byFile   map[int]int
	byPath   map[string]int
}

// New indexes the given records. Clients are ordered by id and files by file id.
// Duplicate ids, duplicate paths and files of unknown clients are rejected.
func New(clients []types.Client, files []types.File) (*Catalog, error) {
	c := &Catalog{
		clients:  append([]types.Client(nil), clients...),
		files:    append([]types.File(nil), files...),
		byClient: make(map[int]int, len(clients)),
		byFile:   make(map[int]int, len(files)),
		byPath:   make(map[string]int, len(files)),
	}
	sort.SliceStable(c.clients, func(i, j int) bool { return c.clients[i].ID < c.clients[j].ID })
	sort.SliceStable(c.files, func(i, j int) bool { return c.files[i].ID < c.files[j].ID })

	for i, cl := range c.clients {
		if _, dup := c.byClient[cl.ID]; dup {
			return nil, fmt.Errorf("duplicate client id %d", cl.ID)
		}
		c.byClient[cl.ID] = i
	}
	for i, f := range c.files {
		if _, dup := c.byFile[f.ID]; dup {
			return nil, fmt.Errorf("duplicate file id %d", f.ID)
		}
		if _, dup := c.byPath[f.Path]; dup {
			return nil, fmt.Errorf("duplicate file path %q", f.Path)
		}
		if _, ok := c.byClient[f.ClientID]; !ok {
			return nil, fmt.Errorf("file %q references unknown client %d", f.Path, f.ClientID)
		}
		c.byFile[f.ID] = i
		c.byPath[f.Path] = i
	}
	return c, nil
}

// Client returns the client with the given id.
func (c *Catalog) Client(id int) (types.Client, error) {
	i, ok := c.byClient[id]
	if !ok {
		return types.Client{}, fmt.Errorf("client %d: %w", id, types.ErrNotFound)
	}
	return c.clients[i], nil
}

// File returns the file with the given id.
func (c *Catalog) File(id int) (types.File, error) {
	i, ok := c.byFile[id]
	if !ok {
		return types.File{}, fmt.Errorf("file %d: %w", id, types.ErrNotFound)
	}
	return c.files[i], nil
}

// FileByPath looks a file up by its relative path without extension.
func (c *Catalog) FileByPath(path string) (types.File, error) {
	i, ok := c.byPath[path]
	if !ok {
		return types.File{}, fmt.Errorf("file %q: %w", path, types.ErrNotFound)
	}
	return c.files[i], nil
}

// Clients returns a copy of all clients ordered by id.
func (c *Catalog) Clients() []types.Client {
	return append([]types.Client(nil), c.clients...)
}

// Files returns a copy of all files ordered by id.
func (c *Catalog) Files() []types.File {
	return append([]types.File(nil), c.files...)
}

// FilesBy returns the files matching pred, ordered by file id.
func (c *Catalog) FilesBy(pred func(types.File) bool) []types.File {
	var out []types.File
	for _, f := range c.files {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}

// Len reports the number of files.
func (c *Catalog) Len() int { return len(c.files) }
