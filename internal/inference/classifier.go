// Package inference runs a trained Caffe classifier through OpenCV's DNN
// module.
package inference

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

const (
	// InputSize is the square input the CaffeNet family expects.
	InputSize = 227

	outputLayer = "prob"
)

var ErrNetNotLoaded = errors.New("classification network not loaded")

type Classifier struct {
	net  gocv.Net
	mean gocv.Scalar
}

type Prediction struct {
	Class      int
	Confidence float32
}

// NewClassifier loads a deploy prototxt and its weights. mean holds the
// per-channel BGR means subtracted from every input.
func NewClassifier(prototxt, weights string, mean []float64) (*Classifier, error) {
	for _, path := range []string{prototxt, weights} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("model file: %w", err)
		}
	}
	if len(mean) != 3 {
		return nil, fmt.Errorf("need 3 channel means, got %d", len(mean))
	}

	net := gocv.ReadNetFromCaffe(prototxt, weights)
	if net.Empty() {
		return nil, ErrNetNotLoaded
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	return &Classifier{
		net:  net,
		mean: gocv.NewScalar(mean[0], mean[1], mean[2], 0),
	}, nil
}

// ClassifyFile reads an image from disk and returns the top class.
func (c *Classifier) ClassifyFile(path string) (Prediction, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return Prediction{}, fmt.Errorf("read image %s", path)
	}
	defer img.Close()

	return c.Classify(img)
}

// Classify resizes img to the network input, subtracts the mean and runs a
// forward pass to the softmax output. img must be 8-bit BGR.
func (c *Classifier) Classify(img gocv.Mat) (Prediction, error) {
	if c.net.Empty() {
		return Prediction{}, ErrNetNotLoaded
	}

	blob := gocv.BlobFromImage(img, 1.0, image.Pt(InputSize, InputSize), c.mean, false, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	prob := c.net.Forward(outputLayer)
	defer prob.Close()

	if prob.Empty() {
		return Prediction{}, fmt.Errorf("forward pass produced no %s output", outputLayer)
	}

	flat := prob.Reshape(1, 1)
	defer flat.Close()

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(flat)
	return Prediction{Class: maxLoc.X, Confidence: maxVal}, nil
}

func (c *Classifier) Close() error {
	return c.net.Close()
}
