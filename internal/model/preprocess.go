package model

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// Preprocess decodes an encoded image and converts it to the normalized CHW
// float tensor the model expects.
func Preprocess(data []byte, meta Metadata) ([]float32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidImage)
	}

	if err := CheckImageSize(data); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	targetSize := uint(meta.ImageSize)
	resized := resize.Resize(targetSize, targetSize, img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height

	inputData := make([]float32, 3*plane)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			pixelIndex := y*width + x
			inputData[pixelIndex] = normalize(r, meta.Mean[0], meta.Std[0])
			inputData[plane+pixelIndex] = normalize(g, meta.Mean[1], meta.Std[1])
			inputData[2*plane+pixelIndex] = normalize(b, meta.Mean[2], meta.Std[2])
		}
	}

	return inputData, nil
}

// MaxPixels bounds the decoded size of an input image. Decoders allocate the
// full pixel buffer from the header before reading any pixel data.
const MaxPixels = 50_000_000

// CheckImageSize reads only the image header and rejects formats that cannot
// be decoded or dimensions above MaxPixels.
func CheckImageSize(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: empty dimensions %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxPixels)
	}
	return nil
}

func normalize(v uint32, mean, std float32) float32 {
	scaled := float32(v) / 65535.0
	if std == 0 {
		return scaled - mean
	}
	return (scaled - mean) / std
}

// topClass returns the index and score of the highest output. Ties go to the
// lowest index.
func topClass(outputs []float32, classes int) (int, float32) {
	n := min(len(outputs), classes)
	if n == 0 {
		return -1, 0
	}
	maxIdx, maxVal := 0, outputs[0]
	for i := 1; i < n; i++ {
		if outputs[i] > maxVal {
			maxIdx, maxVal = i, outputs[i]
		}
	}
	return maxIdx, maxVal
}
