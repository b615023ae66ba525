// Package montage lays convolution filters out as a square grid of tiles.
package montage

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

const pad = 1

var ErrShape = errors.New("filters must be N×C×H×W with data to match")

// Filters is a weight blob in N×C×H×W order.
type Filters struct {
	Shape []int
	Data  []float32
}

func (f Filters) dims() (n, c, h, w int, err error) {
	if len(f.Shape) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("%w: shape %v", ErrShape, f.Shape)
	}
	n, c, h, w = f.Shape[0], f.Shape[1], f.Shape[2], f.Shape[3]
	if n <= 0 || c <= 0 || h <= 0 || w <= 0 || n*c*h*w != len(f.Data) {
		return 0, 0, 0, 0, fmt.Errorf("%w: shape %v, %d values", ErrShape, f.Shape, len(f.Data))
	}
	return n, c, h, w, nil
}

// Render draws every filter as one tile. Filters with three input channels
// become colour tiles, channel 0 in red; any other channel count gives one
// grey tile per filter and channel. Values are normalized over the whole
// blob to [0,1]. Tiles sit on a ceil(sqrt(tiles)) square grid, each followed
// by a one pixel black border, and the image is scaled up by scale using
// nearest neighbour.
func Render(f Filters, scale int) (*image.RGBA, error) {
	n, c, h, w, err := f.dims()
	if err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}

	values := normalize(f.Data)

	colour := c == 3
	tiles := n
	if !colour {
		tiles = n * c
	}
	grid := int(math.Ceil(math.Sqrt(float64(tiles))))

	cellW, cellH := w+pad, h+pad
	img := image.NewRGBA(image.Rect(0, 0, grid*cellW*scale, grid*cellH*scale))
	for i := range img.Pix {
		img.Pix[i] = 0
		if i%4 == 3 {
			img.Pix[i] = 0xff
		}
	}

	plane := h * w
	for t := 0; t < tiles; t++ {
		ox, oy := (t%grid)*cellW, (t/grid)*cellH
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var px color.RGBA
				if colour {
					base := t * 3 * plane
					px = color.RGBA{
						R: level(values[base+y*w+x]),
						G: level(values[base+plane+y*w+x]),
						B: level(values[base+2*plane+y*w+x]),
						A: 0xff,
					}
				} else {
					v := level(values[t*plane+y*w+x])
					px = color.RGBA{R: v, G: v, B: v, A: 0xff}
				}
				fill(img, (ox+x)*scale, (oy+y)*scale, scale, px)
			}
		}
	}

	return img, nil
}

// normalize shifts values so the minimum is 0, then divides by the new
// maximum. A constant blob maps to all zeros.
func normalize(data []float32) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		lo = math.Min(lo, float64(v))
		hi = math.Max(hi, float64(v))
	}

	span := hi - lo
	out := make([]float64, len(data))
	if span == 0 {
		return out
	}
	for i, v := range data {
		out[i] = (float64(v) - lo) / span
	}
	return out
}

func level(v float64) uint8 {
	return uint8(math.Round(v * 255))
}

func fill(img *image.RGBA, x0, y0, size int, px color.RGBA) {
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			img.SetRGBA(x, y, px)
		}
	}
}
