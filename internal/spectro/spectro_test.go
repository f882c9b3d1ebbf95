package spectro

import (
	"bytes"
	"math"
	"testing"

	"github.com/voxscreen/voxscreen/internal/audio"
)

func sineBuffer(sampleRate int, seconds float64) *audio.SampleBuffer {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*880*float64(i)/float64(sampleRate))
	}
	return &audio.SampleBuffer{Samples: samples, SampleRate: sampleRate}
}

func TestRenderPNG(t *testing.T) {
	out, err := RenderPNG(sineBuffer(22050, 3.0), 512, 128)
	if err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("\x89PNG")) {
		t.Error("Output does not start with a PNG signature")
	}
}

func TestRenderPNGDefaults(t *testing.T) {
	out, err := RenderPNG(sineBuffer(22050, 3.0), 0, 0)
	if err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}
	if len(out) == 0 {
		t.Error("Expected non-empty PNG output")
	}
}

func TestRenderPNGEmptyBuffer(t *testing.T) {
	if _, err := RenderPNG(&audio.SampleBuffer{SampleRate: 22050}, 0, 0); err == nil {
		t.Error("Expected error for empty buffer")
	}
	if _, err := RenderPNG(nil, 0, 0); err == nil {
		t.Error("Expected error for nil buffer")
	}
}
