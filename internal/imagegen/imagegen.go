// Package imagegen synthesises small deterministic images for the simulated
// backend and for tests.
package imagegen

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
)

// Pattern draws a diagonal gradient tinted by seed, so different seeds give
// visibly different images.
func Pattern(width, height int, seed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	tint := uint8(seed * 53 % 256)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / max(width, 1)),
				G: uint8((y * 255) / max(height, 1)),
				B: tint,
				A: 255,
			})
		}
	}
	return img
}

// Noise fills an image with pseudo random pixels from seed.
func Noise(width, height int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// PNG encodes Pattern(width, height, seed).
func PNG(width, height int, seed int64) []byte {
	return Encode(Pattern(width, height, seed), "png")
}

// JPEG encodes Pattern(width, height, seed).
func JPEG(width, height int, seed int64) []byte {
	return Encode(Pattern(width, height, seed), "jpeg")
}

// Encode writes img as png, jpeg or gif. Unknown formats fall back to png.
func Encode(img image.Image, format string) []byte {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}
