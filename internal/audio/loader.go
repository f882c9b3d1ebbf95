// Package audio decodes uploaded waveforms into the fixed analysis window
// used by the feature extractor: up to three seconds of mono samples
// starting half a second into the clip, at the clip's native sample rate.
package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

// Analysis window applied to every upload. The window matches what the
// classifier was trained on; changing either value silently shifts the
// feature distribution.
const (
	WindowOffsetSeconds = 0.5
	WindowSeconds       = 3.0
)

// SampleBuffer holds normalized mono samples for a single request. It is
// created per upload and discarded after feature extraction.
type SampleBuffer struct {
	Samples    []float64 // amplitudes in [-1, 1]
	SampleRate int       // native rate of the source clip, never resampled
}

// Duration returns the buffer length in seconds.
func (b *SampleBuffer) Duration() float64 {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// DecodeError reports bytes that could not be read as a supported waveform.
// Callers match it with errors.As to tell "bad file" apart from internal
// failures further down the pipeline.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode audio: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode audio: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Load decodes a WAV payload and extracts the analysis window. Clips
// shorter than offset+window yield whatever samples remain past the offset
// (possibly none) rather than failing; only unreadable or unsupported
// bytes produce a DecodeError.
func Load(raw []byte) (*SampleBuffer, error) {
	if len(raw) == 0 {
		return nil, &DecodeError{Reason: "empty payload"}
	}

	decoder := wav.NewDecoder(bytes.NewReader(raw))
	if !decoder.IsValidFile() {
		return nil, &DecodeError{Reason: "not a WAV/RIFF file"}
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Reason: "reading PCM data", Err: err}
	}
	if pcm == nil || pcm.Format == nil || pcm.Format.SampleRate <= 0 {
		return nil, &DecodeError{Reason: "missing format information"}
	}

	numChannels := pcm.Format.NumChannels
	if numChannels < 1 {
		return nil, &DecodeError{Reason: "no audio channels"}
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = pcm.SourceBitDepth
	}
	// go-audio decodes at most 32-bit PCM; anything wider would also
	// overflow the normalization scale.
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, &DecodeError{Reason: fmt.Sprintf("unsupported bit depth %d", bitDepth)}
	}

	samples := monoFloat64(pcm.Data, numChannels, bitDepth)
	sampleRate := pcm.Format.SampleRate

	return &SampleBuffer{
		Samples:    window(samples, sampleRate),
		SampleRate: sampleRate,
	}, nil
}

// monoFloat64 downmixes interleaved integer PCM to mono float64 in [-1, 1].
// Multi-channel input is averaged across channels, frame by frame.
func monoFloat64(data []int, numChannels, bitDepth int) []float64 {
	scale := 1.0 / float64(int64(1)<<(uint(bitDepth)-1))

	if numChannels == 1 {
		out := make([]float64, len(data))
		for i, s := range data {
			out[i] = float64(s) * scale
		}
		return out
	}

	frames := len(data) / numChannels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < numChannels; c++ {
			sum += float64(data[i*numChannels+c])
		}
		out[i] = sum * scale / float64(numChannels)
	}
	return out
}

// window slices out the fixed analysis window, copying so the full decode
// buffer can be released.
func window(samples []float64, sampleRate int) []float64 {
	start := int(WindowOffsetSeconds * float64(sampleRate))
	if start >= len(samples) {
		return []float64{}
	}
	end := start + int(WindowSeconds*float64(sampleRate))
	if end > len(samples) {
		end = len(samples)
	}
	out := make([]float64, end-start)
	copy(out, samples[start:end])
	return out
}
