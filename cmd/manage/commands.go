package main

import (
	"bufio"
	"fmt"
	"os"

	"imagematch/app"
	"imagematch/pkg/aws"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (m *manage) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the images table and its index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repository, err := m.openStore()
			if err != nil {
				return err
			}
			defer repository.Close()

			if err := repository.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			zap.L().Info("Schema migrated", zap.String("driver", m.config.DatabaseDriver))
			return nil
		},
	}
}

func (m *manage) importUncategorizedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-uncategorized <file>",
		Short: "Import a TSV of zillow_id and url as unlabeled images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			repository, err := m.openStore()
			if err != nil {
				return err
			}
			defer repository.Close()

			n, err := app.ImportUncategorizedImages(cmd.Context(), repository, bufio.NewReader(f))
			if err != nil {
				return fmt.Errorf("import %s after %d rows: %w", args[0], n, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d images.\n", n)
			return nil
		},
	}
}

func (m *manage) generateTrainingFileCmd() *cobra.Command {
	var upload bool

	cmd := &cobra.Command{
		Use:   "generate-training-file <file>",
		Short: "Write every labeled image as zillow_id, url, category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if upload && !m.config.StorageEnabled() {
				return fmt.Errorf("--upload needs AWS_BUCKET to be set")
			}

			repository, err := m.openStore()
			if err != nil {
				return err
			}
			defer repository.Close()

			n, err := writeTrainingFile(cmd, repository, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d labeled images.\n", n)

			if !upload {
				return nil
			}

			bucket := aws.NewS3Bucket(m.config)
			defer bucket.Close()

			key, err := aws.UploadFile(bucket, aws.TrainingPrefix, args[0])
			if err != nil {
				return err
			}
			zap.L().Info("Training file uploaded", zap.String("bucket", m.config.AWSBucket), zap.String("key", key))
			return nil
		},
	}

	cmd.Flags().BoolVar(&upload, "upload", false, "upload the file to the configured bucket")
	return cmd
}

func writeTrainingFile(cmd *cobra.Command, repository app.Repository, file string) (n int, err error) {
	f, err := os.Create(file)
	if err != nil {
		return 0, fmt.Errorf("create training file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close training file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	n, err = app.ExportTrainingFile(cmd.Context(), repository, w)
	if err != nil {
		return n, fmt.Errorf("export: %w", err)
	}
	if err := w.Flush(); err != nil {
		return n, fmt.Errorf("write training file: %w", err)
	}
	return n, nil
}
