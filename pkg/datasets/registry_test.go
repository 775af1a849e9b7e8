package datasets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cocoConf = `# COCO on the local scratch disk
[coco]
dataset_class = CocoDataset
root_dir = /scratch/datasets/coco
features_path = /scratch/features/coco
vocab_path = /scratch/vocab/coco-vocab.pkl

[coco:train2014]
image_dir = images/train2014
caption_path = annotations/captions_train2014.json

[coco:val2014]
image_dir = images/val2014
caption_path = annotations/captions_val2014.json
# validation uses a smaller feature set
features_path = /scratch/features/coco-val
`

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasets.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadResolvesInheritance(t *testing.T) {
	reg, err := Load(context.Background(), writeConf(t, cocoConf))
	require.NoError(t, err)

	train, ok := reg.Section("coco:train2014")
	require.True(t, ok)

	// Inherited from the parent section.
	assert.Equal(t, "CocoDataset", train[KeyDatasetClass])
	assert.Equal(t, "/scratch/features/coco", train[KeyFeaturesPath])
	assert.Equal(t, "/scratch/vocab/coco-vocab.pkl", train[KeyVocabPath])

	// Defined by the split itself.
	assert.Equal(t, "images/train2014", train[KeyImageDir])
	assert.Equal(t, "annotations/captions_train2014.json", train[KeyCaptionPath])
}

func TestLoadChildOverridesParent(t *testing.T) {
	reg, err := Load(context.Background(), writeConf(t, cocoConf))
	require.NoError(t, err)

	val, ok := reg.Section("coco:val2014")
	require.True(t, ok)
	assert.Equal(t, "/scratch/features/coco-val", val[KeyFeaturesPath])

	// The parent section itself must be untouched by the override.
	parent, ok := reg.Section("coco")
	require.True(t, ok)
	assert.Equal(t, "/scratch/features/coco", parent[KeyFeaturesPath])
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	reg, err := Load(context.Background(), writeConf(t, cocoConf))
	require.NoError(t, err)

	for _, name := range reg.Names() {
		section, ok := reg.Section(name)
		require.True(t, ok)
		for key := range section {
			assert.NotContains(t, key, "#")
			assert.NotEmpty(t, key)
		}
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	path := writeConf(t, cocoConf)

	first, err := Load(context.Background(), path)
	require.NoError(t, err)
	second, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.Names(), second.Names())
	for _, name := range first.Names() {
		a, _ := first.Section(name)
		b, _ := second.Section(name)
		assert.Equal(t, a, b)
	}
}

func TestNamesKeepFileOrder(t *testing.T) {
	reg, err := Load(context.Background(), writeConf(t, cocoConf))
	require.NoError(t, err)
	assert.Equal(t, []string{"coco", "coco:train2014", "coco:val2014"}, reg.Names())
}

func TestSplits(t *testing.T) {
	reg, err := Load(context.Background(), writeConf(t, cocoConf))
	require.NoError(t, err)
	assert.Equal(t, []string{"coco:train2014", "coco:val2014"}, reg.Splits("coco"))
	assert.Empty(t, reg.Splits("msrvtt"))
}

func TestLoadMalformedLine(t *testing.T) {
	path := writeConf(t, "[coco]\ndataset_class = CocoDataset\nthis line has no separator\n")

	_, err := Load(context.Background(), path)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.File)
	assert.Equal(t, 3, parseErr.Line)
}

func TestLoadDuplicateSection(t *testing.T) {
	_, err := Load(context.Background(), writeConf(t, "[coco]\n[coco]\n"))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
}

func TestLoadKeyOutsideSection(t *testing.T) {
	_, err := Load(context.Background(), writeConf(t, "dataset_class = CocoDataset\n"))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
}

func TestLoadMissingParent(t *testing.T) {
	_, err := Load(context.Background(), writeConf(t, "[msrvtt:train]\ncaption_path = train_videodatainfo.json\n"))

	var missingErr *MissingParentError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "msrvtt:train", missingErr.Section)
	assert.Equal(t, "msrvtt", missingErr.Parent)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.conf"))
	require.Error(t, err)
}
