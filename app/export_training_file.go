package app

import (
	"context"
	"fmt"
	"io"

	"imagematch/domain"
	"imagematch/pkg/tsv"

	"go.uber.org/zap"
)

// ExportTrainingFile writes every labeled image as zillow_id, url, category
// rows. It scans the whole table without pagination.
func ExportTrainingFile(ctx context.Context, repository Repository, w io.Writer) (int, error) {
	writer, err := tsv.NewWriter(w, "zillow_id", "url", "category")
	if err != nil {
		return 0, err
	}

	exported := 0
	err = repository.EachLabeledImage(ctx, func(image domain.Image) error {
		if err := writer.Write(image.ZillowID, image.URL, image.Category.String()); err != nil {
			return fmt.Errorf("write image %d: %w", image.ID, err)
		}
		exported++
		return nil
	})
	if err != nil {
		return exported, err
	}

	if err := writer.Flush(); err != nil {
		return exported, err
	}

	zap.L().Info("Exported training file", zap.Int("count", exported))
	return exported, nil
}
