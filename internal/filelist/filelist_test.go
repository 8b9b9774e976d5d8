package filelist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/fargo/internal/catalog/catalogtest"
	"github.com/andresmejia3/fargo/internal/protocol"
	"github.com/andresmejia3/fargo/internal/query"
	"github.com/andresmejia3/fargo/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []types.File{
	{ID: 1, ClientID: 26, Path: "026/controlled/SR300-laptop/0/color/00"},
	{ID: 2, ClientID: 71, Path: "071/controlled/SR300-mobile/0/color/01"},
}

func TestWriteShapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample, PathClient))
	assert.Equal(t, "026/controlled/SR300-laptop/0/color/00 026\n071/controlled/SR300-mobile/0/color/01 071\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, sample, PathModelClient))
	assert.Equal(t, "026/controlled/SR300-laptop/0/color/00 026 026\n071/controlled/SR300-mobile/0/color/01 071 071\n", buf.String())
}

func TestReadBothShapes(t *testing.T) {
	in := `# enrollment
026/controlled/SR300-laptop/0/color/00 026 026

071/dark/SR300-mobile/1/ir/09 071
`
	entries, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Path: "026/controlled/SR300-laptop/0/color/00", ModelID: 26, ClientID: 26},
		{Path: "071/dark/SR300-mobile/1/ir/09", ModelID: 71, ClientID: 71},
	}, entries)
}

func TestReadRejectsMalformedLines(t *testing.T) {
	for _, in := range []string{
		"only-a-path\n",
		"a 1 2 3\n",
		"a b\n",
	} {
		_, err := Read(strings.NewReader(in))
		assert.ErrorContains(t, err, "line 1", "input %q", in)
	}
}

func TestBuildReferenceLists(t *testing.T) {
	e := query.New(catalogtest.Reference(t), protocol.Default())
	out := t.TempDir()

	counts, err := Build(context.Background(), e, "ud-rgb", out, DefaultOptions)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		WorldList:             1000,
		"dev/for_models.lst":  500,
		"dev/for_probes.lst":  1000,
		"eval/for_models.lst": 500,
		"eval/for_probes.lst": 1000,
	}, counts)

	models, err := ReadFile(filepath.Join(out, "ud-rgb", "dev", ModelsList))
	require.NoError(t, err)
	require.Len(t, models, 500)
	assert.Equal(t, 26, models[0].ModelID)
	assert.Equal(t, 50, models[499].ClientID)

	raw, err := os.ReadFile(filepath.Join(out, "ud-rgb", "dev", ModelsList))
	require.NoError(t, err)
	first := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, "026/controlled/SR300-laptop/0/color/00 026 026", first)

	raw, err = os.ReadFile(filepath.Join(out, "ud-rgb", filepath.FromSlash(WorldList)))
	require.NoError(t, err)
	assert.Len(t, strings.Fields(strings.SplitN(string(raw), "\n", 2)[0]), 2)
}

func TestBuildSingleModelColumn(t *testing.T) {
	e := query.New(catalogtest.Layout{Clients: 60, Shots: 1}.Catalog(t, types.DefaultPartition), protocol.Default())
	out := t.TempDir()

	_, err := Build(context.Background(), e, "mc-nir", out, Options{})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(out, "mc-nir", "eval", ModelsList))
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		fields := strings.Fields(line)
		require.Len(t, fields, 2)
		assert.Contains(t, fields[0], "/ir/")
	}
}

func TestBuildUnknownProtocol(t *testing.T) {
	e := query.New(catalogtest.Layout{Clients: 1, Shots: 1}.Catalog(t, types.DefaultPartition), protocol.Default())
	_, err := Build(context.Background(), e, "public_MC_RGB", t.TempDir(), DefaultOptions)
	assert.ErrorIs(t, err, types.ErrUnknownProtocol)
}

func TestLists(t *testing.T) {
	assert.Equal(t, []string{
		"norm/train_world.lst",
		"dev/for_models.lst",
		"dev/for_probes.lst",
		"eval/for_models.lst",
		"eval/for_probes.lst",
	}, Lists(DefaultOptions))
}
