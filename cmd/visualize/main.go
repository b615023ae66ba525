package main

import (
	"fmt"
	"os"
	"path/filepath"

	"imagematch/internal/inference"
	"imagematch/pkg/aws"
	"imagematch/pkg/caffe"
	"imagematch/pkg/config"
	"imagematch/pkg/logger"
	"imagematch/pkg/montage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	prototxt string
	weights  string
	mean     string
	sample   string
	layer    string
	output   string
	scale    int
	upload   bool
}

func newRootCmd(appConfig *config.AppConfig) *cobra.Command {
	opts := options{
		prototxt: appConfig.ModelPrototxt,
		weights:  appConfig.ModelWeights,
		mean:     appConfig.ModelMean,
		sample:   appConfig.SampleImage,
		layer:    appConfig.FilterLayer,
		output:   appConfig.FilterOutput,
		scale:    appConfig.FilterScale,
	}

	cmd := &cobra.Command{
		Use:          "visualize",
		Short:        "Classify a sample image and draw a layer's filters",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.upload && !appConfig.StorageEnabled() {
				return fmt.Errorf("--upload needs AWS_BUCKET to be set")
			}
			if err := classify(cmd, opts); err != nil {
				return err
			}
			if err := drawFilters(opts); err != nil {
				return err
			}
			if opts.upload {
				return upload(appConfig, opts.output)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.prototxt, "prototxt", opts.prototxt, "deploy network definition")
	flags.StringVar(&opts.weights, "weights", opts.weights, "trained .caffemodel")
	flags.StringVar(&opts.mean, "mean", opts.mean, "mean image .binaryproto")
	flags.StringVar(&opts.sample, "image", opts.sample, "image to classify")
	flags.StringVar(&opts.layer, "layer", opts.layer, "layer whose filters are drawn")
	flags.StringVarP(&opts.output, "output", "o", opts.output, "PNG to write")
	flags.IntVar(&opts.scale, "scale", opts.scale, "pixels per filter weight")
	flags.BoolVar(&opts.upload, "upload", false, "upload the PNG to the configured bucket")

	return cmd
}

func classify(cmd *cobra.Command, opts options) error {
	meanBlob, err := caffe.ReadBlobFile(opts.mean)
	if err != nil {
		return fmt.Errorf("read mean: %w", err)
	}
	mean, err := meanBlob.ChannelMeans()
	if err != nil {
		return fmt.Errorf("mean %s: %w", opts.mean, err)
	}

	classifier, err := inference.NewClassifier(opts.prototxt, opts.weights, mean)
	if err != nil {
		return err
	}
	defer classifier.Close()

	prediction, err := classifier.ClassifyFile(opts.sample)
	if err != nil {
		return err
	}

	zap.L().Info("Sample image classified",
		zap.String("image", opts.sample),
		zap.Int("class", prediction.Class),
		zap.Float32("confidence", prediction.Confidence),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Predicted class is #%d.\n", prediction.Class)
	return nil
}

func drawFilters(opts options) error {
	net, err := caffe.ReadNetFile(opts.weights)
	if err != nil {
		return fmt.Errorf("read weights: %w", err)
	}

	filters, err := montage.LayerFilters(net, opts.layer)
	if err != nil {
		return err
	}

	img, err := montage.Render(filters, opts.scale)
	if err != nil {
		return fmt.Errorf("draw %s filters: %w", opts.layer, err)
	}
	encoded, err := inference.EncodePNG(img)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(opts.output, encoded, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	zap.L().Info("Filter montage written",
		zap.String("layer", opts.layer),
		zap.Ints("shape", filters.Shape),
		zap.String("output", opts.output),
	)
	return nil
}

func upload(appConfig *config.AppConfig, output string) error {
	bucket := aws.NewS3Bucket(appConfig)
	defer bucket.Close()

	key, err := aws.UploadFile(bucket, aws.FilterPrefix, output)
	if err != nil {
		return err
	}
	zap.L().Info("Filter montage uploaded", zap.String("bucket", appConfig.AWSBucket), zap.String("key", key))
	return nil
}

func main() {
	appConfig := config.Read()

	flush, err := logger.Install(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		panic(err)
	}
	defer flush()

	if err := newRootCmd(appConfig).Execute(); err != nil {
		flush()
		os.Exit(1)
	}
}
