// Package spectro renders a spectrogram PNG of the analysis window for
// display alongside a decision. Purely presentational; nothing here feeds
// the classifier.
package spectro

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/eligwz/spectrogram"

	"github.com/voxscreen/voxscreen/internal/audio"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 256
)

// RenderPNG draws a Hamming-windowed FFT spectrogram of the buffer and
// returns the encoded PNG bytes.
func RenderPNG(buf *audio.SampleBuffer, width, height int) ([]byte, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return nil, fmt.Errorf("render spectrogram: empty sample buffer")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	background := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude, linear scale.
	spectrogram.Drawfft(img, buf.Samples, uint32(buf.SampleRate), uint32(height), false, false, true, false)

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encoding spectrogram png: %w", err)
	}
	return out.Bytes(), nil
}
