package pdf

import (
	"image"
	"image/color"
	"image/draw"
)

// ImagePreprocessor prepares rasterized pages for OCR: pages are flattened
// onto white, converted to grayscale and their contrast stretched so faint
// scans reach the full intensity range.
type ImagePreprocessor struct {
	// ClipFraction of the darkest and brightest pixels is ignored when
	// finding the stretch range
	ClipFraction float64
}

func NewImagePreprocessor() *ImagePreprocessor {
	return &ImagePreprocessor{ClipFraction: 0.01}
}

// Preprocess returns a grayscale copy of img
func (p *ImagePreprocessor) Preprocess(img image.Image) *image.Gray {
	bounds := img.Bounds()

	// transparent regions would otherwise turn black
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	gray := image.NewGray(bounds)
	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(flat.At(x, y)).(color.Gray)
			gray.SetGray(x, y, g)
			hist[g.Y]++
		}
	}

	lo, hi := stretchRange(hist, bounds.Dx()*bounds.Dy(), p.ClipFraction)
	if hi-lo < 2 || (lo == 0 && hi == 255) {
		return gray
	}

	var lut [256]uint8
	for v := range lut {
		switch {
		case v <= lo:
			lut[v] = 0
		case v >= hi:
			lut[v] = 255
		default:
			lut[v] = uint8((v - lo) * 255 / (hi - lo))
		}
	}
	for i, v := range gray.Pix {
		gray.Pix[i] = lut[v]
	}
	return gray
}

// stretchRange returns the intensity bounds after clipping fraction of the
// pixels at each end of the histogram
func stretchRange(hist [256]int, total int, fraction float64) (lo, hi int) {
	clip := int(float64(total) * fraction)

	count := 0
	for lo = 0; lo < 255; lo++ {
		count += hist[lo]
		if count > clip {
			break
		}
	}
	count = 0
	for hi = 255; hi > 0; hi-- {
		count += hist[hi]
		if count > clip {
			break
		}
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
