package aws

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	objects map[string][]byte
	err     error
}

func (m *memoryUploader) Upload(key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.objects[key] = data
	return nil
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "training/training.tsv", ObjectKey(TrainingPrefix, "/tmp/out/training.tsv"))
	assert.Equal(t, "filters/filter-1.png", ObjectKey(FilterPrefix, "filter-1.png"))
}

func TestUploadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "training.tsv")
	require.NoError(t, os.WriteFile(file, []byte("zillow_id\turl\tcategory\n"), 0o644))

	u := &memoryUploader{objects: map[string][]byte{}}
	key, err := UploadFile(u, TrainingPrefix, file)
	require.NoError(t, err)

	assert.Equal(t, "training/training.tsv", key)
	assert.Equal(t, "zillow_id\turl\tcategory\n", string(u.objects[key]))
}

func TestUploadFileErrors(t *testing.T) {
	u := &memoryUploader{objects: map[string][]byte{}}
	_, err := UploadFile(u, TrainingPrefix, filepath.Join(t.TempDir(), "missing.tsv"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "filter.png")
	require.NoError(t, os.WriteFile(file, []byte{1}, 0o644))
	u.err = errors.New("bucket gone")
	_, err = UploadFile(u, FilterPrefix, file)
	assert.ErrorIs(t, err, u.err)
}
