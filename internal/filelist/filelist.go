// Package filelist writes and reads the plain-text file lists consumed by
// verification toolchains: one "<path> <client>[ <client>]" record per line.
package filelist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresmejia3/fargo/internal/logger"
	"github.com/andresmejia3/fargo/internal/query"
	"github.com/andresmejia3/fargo/internal/types"
)

// Shape selects the number of id columns of a list.
type Shape int

const (
	// PathClient writes "<path> <client>".
	PathClient Shape = iota
	// PathModelClient writes "<path> <model> <client>", the model being the client itself.
	PathModelClient
)

// Entry is one parsed list record.
type Entry struct {
	Path     string
	ModelID  int
	ClientID int
}

// Layout of the lists of one protocol, relative to its directory.
const (
	WorldList  = "norm/train_world.lst"
	ModelsList = "for_models.lst"
	ProbesList = "for_probes.lst"
)

// Options configures Build.
type Options struct {
	// DuplicateModelColumn writes enrollment lists with the model id column.
	DuplicateModelColumn bool
	Logger               *logger.Logger
}

// DefaultOptions matches the public lists.
var DefaultOptions = Options{DuplicateModelColumn: true}

// Write serializes files in order, one line each.
func Write(w io.Writer, files []types.File, shape Shape) error {
	bw := bufio.NewWriter(w)
	for _, f := range files {
		id := types.FormatClientID(f.ClientID)
		var err error
		if shape == PathModelClient {
			_, err = fmt.Fprintf(bw, "%s %s %s\n", f.Path, id, id)
		} else {
			_, err = fmt.Fprintf(bw, "%s %s\n", f.Path, id)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses a list in either shape. Blank lines and lines starting with '#' are skipped.
func Read(r io.Reader) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 fields, got %d", line, len(fields))
		}
		ids := make([]int, 0, 2)
		for _, s := range fields[1:] {
			id, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid id %q", line, s)
			}
			ids = append(ids, id)
		}
		e := Entry{Path: fields[0], ModelID: ids[0], ClientID: ids[len(ids)-1]}
		out = append(out, e)
	}
	return out, sc.Err()
}

// ReadFile parses the list at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// list is one manifest of a protocol.
type list struct {
	rel     string
	group   types.Group
	purpose types.Purpose
	shape   Shape
}

// Lists returns the relative paths of the manifests Build writes for a protocol.
func Lists(opts Options) []string {
	var out []string
	for _, l := range plan(opts) {
		out = append(out, l.rel)
	}
	return out
}

func plan(opts Options) []list {
	enroll := PathClient
	if opts.DuplicateModelColumn {
		enroll = PathModelClient
	}
	return []list{
		{WorldList, types.GroupWorld, types.PurposeTrain, PathClient},
		{"dev/" + ModelsList, types.GroupDev, types.PurposeEnroll, enroll},
		{"dev/" + ProbesList, types.GroupDev, types.PurposeProbe, PathClient},
		{"eval/" + ModelsList, types.GroupEval, types.PurposeEnroll, enroll},
		{"eval/" + ProbesList, types.GroupEval, types.PurposeProbe, PathClient},
	}
}

// Build writes every manifest of protocol under outDir/<protocol>/ and
// returns the number of records written per list.
func Build(ctx context.Context, e *query.Engine, protocol, outDir string, opts Options) (map[string]int, error) {
	log := logger.OrNop(opts.Logger).With("protocol", protocol)
	counts := make(map[string]int)
	for _, l := range plan(opts) {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		files, err := e.Objects(query.Request{
			Protocol: protocol,
			Groups:   []string{string(l.group)},
			Purposes: []string{string(l.purpose)},
		})
		if err != nil {
			return counts, err
		}
		path := filepath.Join(outDir, protocol, filepath.FromSlash(l.rel))
		if err := writeFile(path, files, l.shape); err != nil {
			return counts, err
		}
		counts[l.rel] = len(files)
		log.Info("wrote file list", "list", l.rel, "group", l.group, "purpose", l.purpose, "records", len(files))
	}
	return counts, nil
}

func writeFile(path string, files []types.File, shape Shape) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, files, shape); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
