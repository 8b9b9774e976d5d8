// Package catalogtest generates catalogs and image trees with the layout of
// the public release, for tests.
package catalogtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/fargo/internal/catalog"
	"github.com/andresmejia3/fargo/internal/types"
)

// Orientations are the pose sub-folders recorded for every session.
var Orientations = []string{"pitch_bottom", "pitch_small", "pitch_top", "yaw_left", "yaw_right", "yaw_small"}

var (
	lights  = []string{"controlled", "dark", "outdoor"}
	devices = []string{"SR300-laptop", "SR300-mobile"}
	// streams is in lexical order so generated ids match a directory walk.
	streams = []string{"color", "depth", "ir"}
)

// Layout describes a synthetic recording campaign.
type Layout struct {
	Clients int
	// Shots is the number of frontal images per light/device/recording/stream.
	Shots int
	// PoseShots is the number of images per orientation folder; 0 disables pose folders.
	PoseShots int
}

// ReferenceLayout mirrors the public release: 75 clients, 10 frontal shots per stream.
var ReferenceLayout = Layout{Clients: 75, Shots: 10, PoseShots: 2}

// Paths returns every relative image path of the layout, with extension,
// in ascending client then lexical order.
func (l Layout) Paths(ext string) []string {
	var out []string
	for id := 1; id <= l.Clients; id++ {
		for _, light := range lights {
			for _, device := range devices {
				for _, rec := range []string{"0", "1"} {
					for _, stream := range streams {
						base := strings.Join([]string{types.FormatClientID(id), light, device, rec, stream}, "/")
						for shot := 0; shot < l.Shots; shot++ {
							out = append(out, fmt.Sprintf("%s/%02d%s", base, shot, ext))
						}
						if l.PoseShots == 0 {
							continue
						}
						for _, o := range Orientations {
							for shot := 0; shot < l.PoseShots; shot++ {
								out = append(out, fmt.Sprintf("%s/%s/%02d%s", base, o, shot, ext))
							}
						}
					}
				}
			}
		}
	}
	return out
}

// Catalog builds the layout in memory, without touching the filesystem.
func (l Layout) Catalog(tb testing.TB, p types.Partition) *catalog.Catalog {
	tb.Helper()
	clients := make([]types.Client, 0, l.Clients)
	for id := 1; id <= l.Clients; id++ {
		clients = append(clients, types.Client{ID: id, Group: p.Group(id)})
	}
	paths := l.Paths(catalog.DefaultExtension)
	files := make([]types.File, 0, len(paths))
	for i, rel := range paths {
		f, err := catalog.ParsePath(rel, catalog.DefaultExtension)
		if err != nil {
			tb.Fatalf("generated path %q does not parse: %v", rel, err)
		}
		f.ID = i + 1
		files = append(files, f)
	}
	c, err := catalog.New(clients, files)
	if err != nil {
		tb.Fatalf("failed to build reference catalog: %v", err)
	}
	return c
}

// WriteTree materializes the layout as empty image files under root.
func (l Layout) WriteTree(tb testing.TB, root string) {
	tb.Helper()
	for _, rel := range l.Paths(catalog.DefaultExtension) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			tb.Fatal(err)
		}
	}
}

// Reference returns the in-memory reference catalog with the default partition.
func Reference(tb testing.TB) *catalog.Catalog {
	tb.Helper()
	return ReferenceLayout.Catalog(tb, types.DefaultPartition)
}
