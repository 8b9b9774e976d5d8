package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresmejia3/fargo/internal/catalog/catalogtest"
	"github.com/andresmejia3/fargo/internal/filelist"
	"github.com/andresmejia3/fargo/internal/types"
)

// resetState clears flag values and the shared store between executions.
func resetState() {
	if DB != nil {
		DB.Close(context.Background())
		DB = nil
	}
	dbURL, imagesDir, protocolsFile, verbosity = "", "", "", 0
	createRecreate = false
	objProtocol, objGroups, objPurposes, objModelIDs, objDirectory, objExtension = "", nil, nil, nil, "", ""
	clientGroups, modelGroups = nil, nil
	protocolsVerbose = false
	listsOut, listsProtocols, listsSingleColumn = "", nil, false
	resetYes = false
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetState()
	t.Cleanup(resetState)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// setup writes a 6 client tree (world 1-2, dev 3-4, eval 5-6) and returns it with a database path.
func setup(t *testing.T) (images, db string) {
	t.Helper()
	t.Setenv("FARGO_WORLD_MAX_ID", "2")
	t.Setenv("FARGO_DEV_MAX_ID", "4")
	t.Setenv("FARGO_IMAGES_DIR", "")
	t.Setenv("FARGO_DATABASE_URL", "")
	t.Setenv("FARGO_PROTOCOLS_FILE", "")

	images = t.TempDir()
	catalogtest.Layout{Clients: 6, Shots: 2, PoseShots: 1}.WriteTree(t, images)
	db = filepath.Join(t.TempDir(), "fargo.sql3")
	return images, db
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestCreateThenQuery(t *testing.T) {
	images, db := setup(t)

	_, err := run(t, "create", "--images", images, "--db", db)
	require.NoError(t, err)

	out, err := run(t, "objects", "--db", db, "-p", "mc-rgb", "-g", "dev", "-u", "enroll")
	require.NoError(t, err)
	got := lines(out)
	// 2 clients x 2 devices x 1 recording x 2 shots
	require.Len(t, got, 8)
	assert.Equal(t, "003/controlled/SR300-laptop/0/color/00", got[0])

	out, err = run(t, "objects", "--db", db, "-p", "mc-rgb", "-g", "dev", "-u", "enroll", "-m", "004",
		"-d", "/data", "-e", ".png")
	require.NoError(t, err)
	got = lines(out)
	require.Len(t, got, 4)
	assert.Equal(t, filepath.Join("/data", "004", "controlled", "SR300-laptop", "0", "color", "00.png"), got[0])

	out, err = run(t, "models", "--db", db, "-g", "dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"003", "004"}, lines(out))

	out, err = run(t, "clients", "--db", db, "-g", "eval")
	require.NoError(t, err)
	assert.Contains(t, out, "005   eval")
	assert.NotContains(t, out, "world")

	// A second create keeps the stored catalog.
	_, err = run(t, "create", "--images", images, "--db", db)
	require.NoError(t, err)
	_, err = run(t, "create", "--images", images, "--db", db, "--recreate")
	require.NoError(t, err)
}

func TestQueryFromImages(t *testing.T) {
	images, _ := setup(t)

	out, err := run(t, "objects", "--images", images, "-p", "ud-nir", "-g", "eval", "-u", "probe")
	require.NoError(t, err)
	// 2 clients x 2 devices x 2 recordings x 2 shots
	assert.Len(t, lines(out), 16)
	for _, l := range lines(out) {
		assert.Contains(t, l, "/dark/")
		assert.Contains(t, l, "/ir/")
	}
}

func TestObjectsErrors(t *testing.T) {
	images, _ := setup(t)

	_, err := run(t, "objects", "--images", images)
	assert.ErrorContains(t, err, "--protocol")

	_, err = run(t, "objects", "--images", images, "-p", "public_MC_RGB")
	assert.ErrorIs(t, err, types.ErrUnknownProtocol)

	_, err = run(t, "objects", "--images", images, "-p", "mc-rgb", "-g", "test")
	assert.ErrorIs(t, err, types.ErrInvalidGroup)

	_, err = run(t, "objects", "--images", images, "-p", "mc-rgb", "-m", "abc")
	assert.ErrorContains(t, err, "invalid client id")
}

func TestLists(t *testing.T) {
	images, _ := setup(t)
	out := t.TempDir()

	_, err := run(t, "lists", "--images", images, "--out", out, "-p", "mc-rgb,uo-depth")
	require.NoError(t, err)

	for _, name := range []string{"mc-rgb", "uo-depth"} {
		for _, rel := range filelist.Lists(filelist.DefaultOptions) {
			_, err := os.Stat(filepath.Join(out, name, filepath.FromSlash(rel)))
			assert.NoError(t, err, "%s/%s", name, rel)
		}
	}
	models, err := filelist.ReadFile(filepath.Join(out, "mc-rgb", "eval", filelist.ModelsList))
	require.NoError(t, err)
	require.Len(t, models, 8)
	assert.Equal(t, 5, models[0].ModelID)
}

func TestProtocols(t *testing.T) {
	setup(t)

	out, err := run(t, "protocols")
	require.NoError(t, err)
	got := lines(out)
	assert.Len(t, got, 65)
	assert.Equal(t, "mc-rgb", got[0])

	out, err = run(t, "protocols", "--long")
	require.NoError(t, err)
	assert.Contains(t, out, "pos-yaw_left-ud-nir")
}

func TestResetDropsCatalog(t *testing.T) {
	images, db := setup(t)

	_, err := run(t, "create", "--images", images, "--db", db)
	require.NoError(t, err)

	// No confirmation on stdin: nothing is dropped.
	_, err = run(t, "reset", "--db", db)
	require.NoError(t, err)
	_, err = run(t, "models", "--db", db)
	require.NoError(t, err)

	_, err = run(t, "reset", "--db", db, "--yes")
	require.NoError(t, err)

	_, err = run(t, "models", "--db", db)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

const labTable = `
protocols:
  - name: lab-rgb
    modalities: [rgb]
    train: {light: [controlled], pose: [frontal], recording: [0, 1]}
    enroll: {light: [controlled], pose: [frontal], recording: [0]}
    probe: {light: [dark], pose: [frontal]}
`

func TestCustomProtocolTableFollowsCatalog(t *testing.T) {
	images, db := setup(t)
	table := filepath.Join(t.TempDir(), "lab.yaml")
	require.NoError(t, os.WriteFile(table, []byte(labTable), 0o644))

	_, err := run(t, "create", "--images", images, "--db", db, "--protocols", table)
	require.NoError(t, err)

	out, err := run(t, "objects", "--db", db, "--protocols", table, "-p", "lab-rgb", "-g", "eval", "-u", "probe")
	require.NoError(t, err)
	// 2 clients x 2 devices x 2 recordings x 2 shots
	assert.Len(t, lines(out), 16)

	out, err = run(t, "protocols", "--db", db, "--protocols", table)
	require.NoError(t, err)
	assert.Equal(t, []string{"lab-rgb"}, lines(out))

	// The built-in table does not match what the catalog was created with.
	_, err = run(t, "objects", "--db", db, "-p", "lab-rgb")
	assert.ErrorIs(t, err, errProtocolMismatch)
	assert.ErrorContains(t, err, "--protocols")

	_, err = run(t, "protocols", "--db", db)
	assert.ErrorIs(t, err, errProtocolMismatch)
}

func TestFailedCommandLeavesStoreForCleanup(t *testing.T) {
	images, db := setup(t)

	_, err := run(t, "create", "--images", images, "--db", db)
	require.NoError(t, err)

	// PersistentPostRun does not run when RunE fails.
	resetState()
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"objects", "--db", db, "-p", "public_MC_RGB"})
	err = rootCmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, types.ErrUnknownProtocol)
	require.NotNil(t, DB)

	cleanup()
	assert.Nil(t, DB)
}
