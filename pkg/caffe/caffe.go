// Package caffe reads the parts of Caffe's binary protobuf files needed to
// inspect a trained network: layer names, types and parameter blobs from a
// .caffemodel, and mean images from a .binaryproto.
package caffe

import (
	"errors"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrBlobShape     = errors.New("blob data does not match its shape")
)

// Field numbers from caffe.proto.
const (
	netName     protowire.Number = 1
	netLayersV1 protowire.Number = 2
	netLayer    protowire.Number = 100

	layerName  protowire.Number = 1
	layerType  protowire.Number = 2
	layerBlobs protowire.Number = 7

	layerV1Name  protowire.Number = 4
	layerV1Type  protowire.Number = 5
	layerV1Blobs protowire.Number = 6

	blobNum        protowire.Number = 1
	blobChannels   protowire.Number = 2
	blobHeight     protowire.Number = 3
	blobWidth      protowire.Number = 4
	blobData       protowire.Number = 5
	blobShape      protowire.Number = 7
	blobDoubleData protowire.Number = 8

	shapeDim protowire.Number = 1
)

// v1LayerTypes names the V1LayerParameter.LayerType values that still appear
// in old model zoo snapshots.
var v1LayerTypes = map[uint64]string{
	3:  "Concat",
	4:  "Convolution",
	5:  "Data",
	6:  "Dropout",
	14: "InnerProduct",
	15: "LRN",
	17: "Pooling",
	18: "ReLU",
	20: "Softmax",
	22: "Split",
}

type Blob struct {
	Shape []int
	Data  []float32
}

// Count is the number of elements the shape describes.
func (b Blob) Count() int {
	if len(b.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

// ChannelMeans averages a C×H×W (or N×C×H×W with N=1) blob over each
// channel. A one dimensional blob is taken to hold the means already.
func (b Blob) ChannelMeans() ([]float64, error) {
	if b.Count() != len(b.Data) || len(b.Data) == 0 {
		return nil, ErrBlobShape
	}

	if len(b.Shape) == 1 {
		means := make([]float64, len(b.Data))
		for i, v := range b.Data {
			means[i] = float64(v)
		}
		return means, nil
	}

	if len(b.Shape) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 dims, got %v", ErrBlobShape, b.Shape)
	}

	dims := b.Shape[len(b.Shape)-3:]
	channels, plane := dims[0], dims[1]*dims[2]
	if channels*plane != len(b.Data) {
		return nil, fmt.Errorf("%w: only a single image is supported, got %v", ErrBlobShape, b.Shape)
	}

	means := make([]float64, channels)
	for c := 0; c < channels; c++ {
		var sum float64
		for _, v := range b.Data[c*plane : (c+1)*plane] {
			sum += float64(v)
		}
		means[c] = sum / float64(plane)
	}
	return means, nil
}

type Layer struct {
	Name string
	Type string

	blobs [][]byte
}

// Blobs decodes the layer's parameter blobs. For convolution layers the
// first is the N×C×H×W weight and the second the bias.
func (l Layer) Blobs() ([]Blob, error) {
	out := make([]Blob, 0, len(l.blobs))
	for i, raw := range l.blobs {
		b, err := ParseBlob(raw)
		if err != nil {
			return nil, fmt.Errorf("layer %s blob %d: %w", l.Name, i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

type Net struct {
	Name   string
	Layers []Layer
}

// Layer returns the first layer called name.
func (n *Net) Layer(name string) (Layer, error) {
	for _, l := range n.Layers {
		if l.Name == name {
			return l, nil
		}
	}
	return Layer{}, fmt.Errorf("%w: %s", ErrLayerNotFound, name)
}

// ParseNet decodes a NetParameter. Both the current "layer" and the legacy
// "layers" encodings are read. Blob payloads are kept as slices of data and
// only decoded by Layer.Blobs.
func ParseNet(data []byte) (*Net, error) {
	net := &Net{}

	err := eachField(data, func(f field) error {
		switch {
		case f.num == netName && f.typ == protowire.BytesType:
			net.Name = string(f.bytes)
		case f.num == netLayer && f.typ == protowire.BytesType:
			l, err := parseLayer(f.bytes, layerName, layerBlobs, layerType)
			if err != nil {
				return fmt.Errorf("layer %d: %w", len(net.Layers), err)
			}
			net.Layers = append(net.Layers, l)
		case f.num == netLayersV1 && f.typ == protowire.BytesType:
			l, err := parseLayer(f.bytes, layerV1Name, layerV1Blobs, layerV1Type)
			if err != nil {
				return fmt.Errorf("layer %d: %w", len(net.Layers), err)
			}
			net.Layers = append(net.Layers, l)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse net: %w", err)
	}

	return net, nil
}

func parseLayer(data []byte, nameField, blobsField, typeField protowire.Number) (Layer, error) {
	var l Layer

	err := eachField(data, func(f field) error {
		switch {
		case f.num == nameField && f.typ == protowire.BytesType:
			l.Name = string(f.bytes)
		case f.num == blobsField && f.typ == protowire.BytesType:
			l.blobs = append(l.blobs, f.bytes)
		case f.num == typeField && f.typ == protowire.BytesType:
			l.Type = string(f.bytes)
		case f.num == typeField && f.typ == protowire.VarintType:
			l.Type = v1TypeName(f.varint)
		}
		return nil
	})

	return l, err
}

func v1TypeName(v uint64) string {
	if name, ok := v1LayerTypes[v]; ok {
		return name
	}
	return fmt.Sprintf("V1(%d)", v)
}

// ParseBlob decodes a BlobProto. The shape comes from BlobShape when present
// and from the legacy num/channels/height/width fields otherwise.
func ParseBlob(data []byte) (Blob, error) {
	var (
		b      Blob
		legacy [4]int
		hasDim bool
	)

	err := eachField(data, func(f field) error {
		switch f.num {
		case blobNum, blobChannels, blobHeight, blobWidth:
			if f.typ != protowire.VarintType {
				return nil
			}
			legacy[f.num-blobNum] = int(int32(f.varint))
			hasDim = true
		case blobShape:
			if f.typ != protowire.BytesType {
				return nil
			}
			shape, err := parseShape(f.bytes)
			if err != nil {
				return err
			}
			b.Shape = shape
		case blobData:
			values, err := appendFloats(b.Data, f)
			if err != nil {
				return err
			}
			b.Data = values
		case blobDoubleData:
			values, err := appendDoubles(b.Data, f)
			if err != nil {
				return err
			}
			b.Data = values
		}
		return nil
	})
	if err != nil {
		return Blob{}, fmt.Errorf("parse blob: %w", err)
	}

	if b.Shape == nil && hasDim {
		b.Shape = legacy[:]
	}
	if b.Shape != nil && b.Count() != len(b.Data) {
		return Blob{}, fmt.Errorf("%w: shape %v has %d elements, data has %d", ErrBlobShape, b.Shape, b.Count(), len(b.Data))
	}

	return b, nil
}

func parseShape(data []byte) ([]int, error) {
	shape := []int{}

	err := eachField(data, func(f field) error {
		if f.num != shapeDim {
			return nil
		}
		switch f.typ {
		case protowire.VarintType:
			shape = append(shape, int(int64(f.varint)))
		case protowire.BytesType:
			packed := f.bytes
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return protowire.ParseError(n)
				}
				shape = append(shape, int(int64(v)))
				packed = packed[n:]
			}
		}
		return nil
	})

	return shape, err
}

func appendFloats(dst []float32, f field) ([]float32, error) {
	switch f.typ {
	case protowire.Fixed32Type:
		return append(dst, math.Float32frombits(f.fixed32)), nil
	case protowire.BytesType:
		packed := f.bytes
		if len(packed)%4 != 0 {
			return nil, fmt.Errorf("%w: packed float data of %d bytes", ErrBlobShape, len(packed))
		}
		for len(packed) > 0 {
			v, n := protowire.ConsumeFixed32(packed)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			dst = append(dst, math.Float32frombits(v))
			packed = packed[n:]
		}
	}
	return dst, nil
}

func appendDoubles(dst []float32, f field) ([]float32, error) {
	switch f.typ {
	case protowire.Fixed64Type:
		return append(dst, float32(math.Float64frombits(f.fixed64))), nil
	case protowire.BytesType:
		packed := f.bytes
		if len(packed)%8 != 0 {
			return nil, fmt.Errorf("%w: packed double data of %d bytes", ErrBlobShape, len(packed))
		}
		for len(packed) > 0 {
			v, n := protowire.ConsumeFixed64(packed)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			dst = append(dst, float32(math.Float64frombits(v)))
			packed = packed[n:]
		}
	}
	return dst, nil
}

// ReadNetFile loads and parses a .caffemodel.
func ReadNetFile(path string) (*Net, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseNet(data)
}

// ReadBlobFile loads and parses a .binaryproto, such as a mean image.
func ReadBlobFile(path string) (Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Blob{}, err
	}
	return ParseBlob(data)
}
