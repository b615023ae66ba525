package montage

import (
	"fmt"

	"imagematch/pkg/caffe"
)

// LayerFilters takes the weight blob, the first parameter blob, of a
// convolution layer.
func LayerFilters(net *caffe.Net, layer string) (Filters, error) {
	l, err := net.Layer(layer)
	if err != nil {
		return Filters{}, err
	}

	blobs, err := l.Blobs()
	if err != nil {
		return Filters{}, err
	}
	if len(blobs) == 0 {
		return Filters{}, fmt.Errorf("layer %s (%s) has no weights", l.Name, l.Type)
	}

	return Filters{Shape: blobs[0].Shape, Data: blobs[0].Data}, nil
}
