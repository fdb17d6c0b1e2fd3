package pdf

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImagePreprocessor_StretchesContrast(t *testing.T) {
	// faint scan: text at 100, paper at 180
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := uint8(180)
			if x < 3 {
				v = 100
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	gray := NewImagePreprocessor().Preprocess(img)

	assert.Equal(t, img.Bounds(), gray.Bounds())
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(9, 9).Y)
}

func TestImagePreprocessor_FlattensTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.NRGBA{0, 0, 0, 255})

	gray := NewImagePreprocessor().Preprocess(img)

	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(3, 3).Y, "transparent pixels should become white")
}

func TestImagePreprocessor_UniformImageUnchanged(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	for i := range img.Pix {
		img.Pix[i] = 90
	}

	gray := NewImagePreprocessor().Preprocess(img)
	assert.Equal(t, uint8(90), gray.GrayAt(2, 2).Y)
}

func TestStretchRange(t *testing.T) {
	var hist [256]int
	hist[10] = 1 // outlier below the clip
	hist[50] = 49
	hist[200] = 50

	lo, hi := stretchRange(hist, 100, 0.02)
	assert.Equal(t, 50, lo)
	assert.Equal(t, 200, hi)
}
