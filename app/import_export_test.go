package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"imagematch/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportUncategorizedImages(t *testing.T) {
	repo := newMemoryRepository()
	input := "zillow_id\turl\nZ1\thttp://x/1.jpg\nZ2\thttps://x/2.jpg\n"

	n, err := ImportUncategorizedImages(context.Background(), repo, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, repo.images, 2)
	assert.Equal(t, "Z1", repo.images[0].ZillowID)
	assert.Equal(t, "http://x/1.jpg", repo.images[0].URL)
	assert.Nil(t, repo.images[0].Category)
	assert.Nil(t, repo.images[1].Category)
}

func TestImportStopsAtFirstBadRow(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"missing url column", "zillow_id\nZ1\n", 0},
		{"empty file", "", 0},
		{"ragged row", "zillow_id\turl\nZ1\thttp://x/1.jpg\nZ2\n", 1},
		{"zillow id too long", "zillow_id\turl\nZ1\thttp://x/1.jpg\nZ1234567890123456\thttp://x/2.jpg\n", 1},
		{"not a url", "zillow_id\turl\nZ1\tnot a url\n", 0},
		{"blank zillow id", "zillow_id\turl\n\thttp://x/1.jpg\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepository()
			n, err := ImportUncategorizedImages(context.Background(), repo, strings.NewReader(tt.input))
			assert.Error(t, err)
			assert.Equal(t, tt.want, n)
			assert.Len(t, repo.images, tt.want)
		})
	}
}

func TestImportErrorNamesLine(t *testing.T) {
	input := "zillow_id\turl\nZ1\thttp://x/1.jpg\nZ2\tbad\n"

	_, err := ImportUncategorizedImages(context.Background(), newMemoryRepository(), strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestExportTrainingFileWritesLabeledOnly(t *testing.T) {
	repo := newMemoryRepository()
	images := seedImages(t, repo, 3)
	require.NoError(t, repo.UpdateImageCategory(context.Background(), images[2].ID, domain.CategoryMap))
	require.NoError(t, repo.UpdateImageCategory(context.Background(), images[0].ID, domain.CategoryInterior))

	var buf bytes.Buffer
	n, err := ExportTrainingFile(context.Background(), repo, &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, "zillow_id\turl\tcategory\nZ0\thttp://x/0.jpg\tInterior\nZ2\thttp://x/2.jpg\tMap\n", buf.String())
}

func TestExportTrainingFileEmptyStoreWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	n, err := ExportTrainingFile(context.Background(), newMemoryRepository(), &buf)
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Equal(t, "zillow_id\turl\tcategory\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExportTrainingFilePropagatesWriteFailure(t *testing.T) {
	repo := newMemoryRepository()
	images := seedImages(t, repo, 1)
	require.NoError(t, repo.UpdateImageCategory(context.Background(), images[0].ID, domain.CategoryMap))

	_, err := ExportTrainingFile(context.Background(), repo, failingWriter{})
	assert.Error(t, err)
}

func TestImportLabelExportRoundTrip(t *testing.T) {
	repo := newMemoryRepository()
	ctx := context.Background()

	_, err := ImportUncategorizedImages(ctx, repo, strings.NewReader("zillow_id\turl\nZ1\thttp://x/1.jpg\n"))
	require.NoError(t, err)

	batch, err := SelectUnlabeledBatch(ctx, repo, DefaultBatchSize)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Nil(t, batch[0].Category)

	_, err = NewApplyLabelsHandler(repo, nil, "imagematch").Apply(ctx, []LabelSubmission{
		{ID: idString(batch[0].ID), Category: "Exterior"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = ExportTrainingFile(ctx, repo, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Z1\thttp://x/1.jpg\tExterior")
}

func TestCreateUnlabeledImageTrimsInput(t *testing.T) {
	repo := newMemoryRepository()

	id, err := CreateUnlabeledImage(context.Background(), repo, ImageRow{ZillowID: " Z7 ", URL: " http://x/7.jpg "})
	require.NoError(t, err)

	img := repo.image(id)
	assert.Equal(t, "Z7", img.ZillowID)
	assert.Equal(t, "http://x/7.jpg", img.URL)
}
