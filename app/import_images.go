package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"imagematch/pkg/tsv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ImageRow is one uncategorized image as it arrives from a TSV file or the
// listing crawler.
type ImageRow struct {
	ZillowID string `validate:"required,max=15"`
	URL      string `validate:"required,url"`
}

var rowValidator = validator.New(validator.WithRequiredStructEnabled())

func (r ImageRow) Validate() error {
	if err := rowValidator.Struct(r); err != nil {
		return fmt.Errorf("invalid image row: %w", err)
	}
	return nil
}

// CreateUnlabeledImage validates a row and stores it with no category.
func CreateUnlabeledImage(ctx context.Context, repository Repository, row ImageRow) (int64, error) {
	row.ZillowID = strings.TrimSpace(row.ZillowID)
	row.URL = strings.TrimSpace(row.URL)

	if err := row.Validate(); err != nil {
		return 0, err
	}

	image, err := repository.CreateImage(ctx, row.ZillowID, row.URL)
	if err != nil {
		return 0, fmt.Errorf("create image %s: %w", row.ZillowID, err)
	}
	return image.ID, nil
}

// ImportUncategorizedImages creates one unlabeled image per row of a TSV with
// zillow_id and url columns. The first bad row aborts the import; rows before
// it stay imported.
func ImportUncategorizedImages(ctx context.Context, repository Repository, r io.Reader) (int, error) {
	reader, err := tsv.NewReader(r, "zillow_id", "url")
	if err != nil {
		return 0, err
	}

	imported := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, err
		}

		_, err = CreateUnlabeledImage(ctx, repository, ImageRow{
			ZillowID: row.Get("zillow_id"),
			URL:      row.Get("url"),
		})
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", row.Line, err)
		}
		imported++
	}

	zap.L().Info("Imported uncategorized images", zap.Int("count", imported))
	return imported, nil
}
