package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

var (
	ErrDecode = errors.New("image could not be decoded")
	// ErrUnsupportedFormat is also an ErrDecode.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Layout is the memory order of the produced tensor.
type Layout string

const (
	// NHWC interleaves channels per pixel, the Keras default.
	NHWC Layout = "nhwc"
	// NCHW stores one plane per channel.
	NCHW Layout = "nchw"
)

const channels = 3

var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// Loader turns uploaded image bytes into a model input tensor.
type Loader struct {
	size   uint
	layout Layout
}

func NewLoader(size int, layout Layout) (*Loader, error) {
	if size <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", size)
	}
	switch layout {
	case "":
		layout = NHWC
	case NHWC, NCHW:
	default:
		return nil, fmt.Errorf("unknown tensor layout %q", layout)
	}
	return &Loader{size: uint(size), layout: layout}, nil
}

// TensorLen is the number of values Load produces.
func (l *Loader) TensorLen() int {
	return channels * int(l.size) * int(l.size)
}

// Decode parses data as jpeg or png.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !supportedFormats[format] {
		return nil, format, fmt.Errorf("%w: %w: %s", ErrDecode, ErrUnsupportedFormat, format)
	}
	return img, format, nil
}

// Load decodes data, resizes it to a size x size square and scales every
// channel to [0,1]. Alpha is dropped without premultiplying the colour.
func (l *Loader) Load(data []byte) ([]float32, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return l.Tensor(img), nil
}

// Tensor converts an already decoded image.
func (l *Loader) Tensor(img image.Image) []float32 {
	resized := resize.Resize(l.size, l.size, img, resize.NearestNeighbor)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	out := make([]float32, channels*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := color.NRGBA64Model.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			rgb := [channels]float32{
				float32(px.R) / 65535.0,
				float32(px.G) / 65535.0,
				float32(px.B) / 65535.0,
			}

			pixel := y*width + x
			for c, v := range rgb {
				if l.layout == NCHW {
					out[c*plane+pixel] = v
				} else {
					out[pixel*channels+c] = v
				}
			}
		}
	}
	return out
}
