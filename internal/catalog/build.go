package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/andresmejia3/fargo/internal/logger"
	"github.com/andresmejia3/fargo/internal/types"
	"golang.org/x/sync/errgroup"
)

// DefaultExtension is the image extension written by the extraction scripts.
const DefaultExtension = ".png"

// BuildOptions configures a directory scan.
type BuildOptions struct {
	Partition types.Partition
	// Extension selects which files are indexed, including the leading dot.
	Extension string
	// Workers bounds the number of client directories scanned concurrently.
	Workers int
	Logger  *logger.Logger
	// Progress, when set, is called once per scanned client. Calls are serialized.
	Progress func(clientID int)
}

func (o *BuildOptions) normalize() error {
	if o.Partition == (types.Partition{}) {
		o.Partition = types.DefaultPartition
	}
	if err := o.Partition.Validate(); err != nil {
		return err
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	if !strings.HasPrefix(o.Extension, ".") {
		o.Extension = "." + o.Extension
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	o.Logger = logger.OrNop(o.Logger)
	return nil
}

type clientDir struct {
	id   int
	name string
}

// ClientDirs lists the client directories directly under root, ordered by id.
// Regular files at the top level are ignored.
func ClientDirs(root string) ([]int, error) {
	dirs, err := listClientDirs(root)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(dirs))
	for i, d := range dirs {
		ids[i] = d.id
	}
	return ids, nil
}

func listClientDirs(root string) ([]clientDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []clientDir
	seen := make(map[int]string)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.Atoi(e.Name())
		if err != nil || id <= 0 {
			return nil, &types.LayoutError{Path: e.Name(), Segment: e.Name(), Reason: "client directory is not a positive integer id"}
		}
		if prev, dup := seen[id]; dup {
			return nil, &types.LayoutError{Path: e.Name(), Segment: e.Name(), Reason: "client id already used by " + prev}
		}
		seen[id] = e.Name()
		dirs = append(dirs, clientDir{id: id, name: e.Name()})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].id < dirs[j].id })
	return dirs, nil
}

// Build scans root, whose layout is
// {client}/{light}/{device}/{recording}/{stream}[/{orientation}]/{shot}.{ext},
// and returns the resulting catalog. Client directories are scanned in
// parallel; file ids follow ascending client id, then lexical path order.
func Build(ctx context.Context, root string, opts BuildOptions) (*Catalog, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	log := opts.Logger.With("root", root)

	dirs, err := listClientDirs(root)
	if err != nil {
		return nil, err
	}

	perClient := make([][]types.File, len(dirs))
	var progressMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, d := range dirs {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files, err := scanClient(gctx, root, d, opts.Extension)
			if err != nil {
				return err
			}
			perClient[i] = files
			log.Debug("scanned client", "client", d.id, "files", len(files))
			if opts.Progress != nil {
				progressMu.Lock()
				opts.Progress(d.id)
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	clients := make([]types.Client, len(dirs))
	var files []types.File
	nextID := 1
	for i, d := range dirs {
		clients[i] = types.Client{ID: d.id, Group: opts.Partition.Group(d.id)}
		log.Info("adding client", "client", d.id, "group", clients[i].Group)
		for _, f := range perClient[i] {
			f.ID = nextID
			nextID++
			log.Debug("adding file", "id", f.ID, "path", f.Path, "light", f.Light, "device", f.Device,
				"pose", f.Pose, "modality", f.Modality, "recording", f.Recording, "shot", f.Shot)
			files = append(files, f)
		}
	}
	return New(clients, files)
}

func scanClient(ctx context.Context, root string, d clientDir, ext string) ([]types.File, error) {
	var files []types.File
	err := filepath.WalkDir(filepath.Join(root, d.name), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		f, err := ParsePath(filepath.ToSlash(rel), ext)
		if err != nil {
			return err
		}
		f.ClientID = d.id
		files = append(files, f)
		return nil
	})
	return files, err
}

// ParsePath decodes a '/'-separated path relative to the images root into a
// File without id. The extension is stripped from the stored path.
func ParsePath(rel, ext string) (types.File, error) {
	segs := strings.Split(rel, "/")
	if len(segs) != 6 && len(segs) != 7 {
		return types.File{}, &types.LayoutError{Path: rel, Reason: "expected client/light/device/recording/stream[/orientation]/shot"}
	}
	bad := func(seg, reason string) (types.File, error) {
		return types.File{}, &types.LayoutError{Path: rel, Segment: seg, Reason: reason}
	}

	var (
		f   types.File
		err error
	)
	if f.ClientID, err = strconv.Atoi(segs[0]); err != nil {
		return bad(segs[0], "client id is not an integer")
	}
	if f.Light, err = types.ParseLight(segs[1]); err != nil {
		return bad(segs[1], err.Error())
	}
	if f.Device, err = types.ParseDevice(segs[2]); err != nil {
		return bad(segs[2], err.Error())
	}
	if f.Recording, err = types.ParseRecording(segs[3]); err != nil {
		return bad(segs[3], err.Error())
	}
	if f.Modality, err = types.ModalityFromStream(segs[4]); err != nil {
		return bad(segs[4], err.Error())
	}

	name := segs[len(segs)-1]
	if !strings.HasSuffix(name, ext) {
		return bad(name, "missing extension "+ext)
	}
	if f.Shot, err = strconv.Atoi(strings.TrimSuffix(name, ext)); err != nil {
		return bad(name, "shot is not an integer")
	}

	f.Pose = types.PoseFromPath(rel)
	if len(segs) == 7 {
		f.Orientation = segs[5]
		if types.PoseFromPath(f.Orientation) == types.PoseFrontal {
			return bad(f.Orientation, "pose folder names neither yaw nor pitch")
		}
	}
	f.Path = strings.TrimSuffix(rel, ext)
	return f, nil
}
