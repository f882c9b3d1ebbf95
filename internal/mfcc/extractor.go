// Package mfcc computes the 13 mean Mel-frequency cepstral coefficients the
// classifier was trained on. The front-end reproduces the librosa defaults
// (centered Hann frames, FFT 2048, hop 512, 128 Slaney mel bands, dB
// conversion, orthonormal DCT-II); any numeric drift here corrupts
// predictions without raising an error, so the parameters are fixed.
package mfcc

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/voxscreen/voxscreen/internal/audio"
)

// Front-end parameters. These mirror librosa.feature.mfcc defaults and are
// part of the model contract, not tunables.
const (
	NumCoefficients = 13
	FFTSize         = 2048
	HopLength       = 512
	NumMels         = 128

	aminPower = 1e-10
	topDB     = 80.0
)

// FeatureVector is the fixed-length classifier input: mean MFCC per
// coefficient index, in training-time order.
type FeatureVector = []float64

// ExtractionError reports a buffer that cannot produce a single spectral
// frame. The pipeline never attempts classification after one.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("feature extraction: %s", e.Reason)
}

// Extractor computes mean MFCC vectors. It is stateless apart from the
// precomputed analysis window, so one instance is shared by all requests.
type Extractor struct {
	window []float64 // periodic Hann window of FFTSize
}

func NewExtractor() *Extractor {
	return &Extractor{window: hannWindow(FFTSize)}
}

// Extract computes the length-13 mean-MFCC vector for the buffer, using the
// buffer's own sample rate as the analysis rate. Same buffer in, same
// vector out: there is no randomness anywhere in the chain.
func (e *Extractor) Extract(buf *audio.SampleBuffer) (FeatureVector, error) {
	if buf == nil || buf.SampleRate <= 0 {
		return nil, &ExtractionError{Reason: "missing sample buffer"}
	}
	// Centered framing reflect-pads FFTSize/2 samples on each side, which
	// needs at least that many samples to mirror.
	if len(buf.Samples) <= FFTSize/2 {
		return nil, &ExtractionError{
			Reason: fmt.Sprintf("%d samples is too short for one spectral frame (need > %d)", len(buf.Samples), FFTSize/2),
		}
	}

	melSpec := e.melSpectrogram(buf.Samples, buf.SampleRate)
	powerToDB(melSpec)

	numFrames := len(melSpec[0])
	mean := make(FeatureVector, NumCoefficients)
	frame := make([]float64, NumMels)
	for t := 0; t < numFrames; t++ {
		for m := 0; m < NumMels; m++ {
			frame[m] = melSpec[m][t]
		}
		coeffs := dctOrtho(frame, NumCoefficients)
		for i := 0; i < NumCoefficients; i++ {
			mean[i] += coeffs[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(numFrames)
	}
	return mean, nil
}

// melSpectrogram computes the power mel spectrogram, mel-major:
// melSpec[band][frame].
func (e *Extractor) melSpectrogram(samples []float64, sampleRate int) [][]float64 {
	padded := reflectPad(samples, FFTSize/2)
	numFrames := 1 + (len(padded)-FFTSize)/HopLength
	halfN := FFTSize/2 + 1

	bank := melFilterBank(NumMels, FFTSize, sampleRate)

	melSpec := make([][]float64, NumMels)
	for m := range melSpec {
		melSpec[m] = make([]float64, numFrames)
	}

	frame := make([]float64, FFTSize)
	power := make([]float64, halfN)
	for t := 0; t < numFrames; t++ {
		start := t * HopLength
		for i := 0; i < FFTSize; i++ {
			frame[i] = padded[start+i] * e.window[i]
		}
		spectrum := fft.FFTReal(frame)
		for k := 0; k < halfN; k++ {
			mag := cmplx.Abs(spectrum[k])
			power[k] = mag * mag
		}
		for m := 0; m < NumMels; m++ {
			sum := 0.0
			for _, fw := range bank[m].weights {
				sum += fw.w * power[fw.k]
			}
			melSpec[m][t] = sum
		}
	}
	return melSpec
}

// hannWindow returns the periodic Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// reflectPad mirrors pad samples on each side of x, excluding the edge
// sample itself (numpy "reflect" mode). Requires len(x) > pad.
func reflectPad(x []float64, pad int) []float64 {
	out := make([]float64, pad+len(x)+pad)
	for i := 0; i < pad; i++ {
		out[i] = x[pad-i]
	}
	copy(out[pad:], x)
	last := len(x) - 1
	for i := 0; i < pad; i++ {
		out[pad+len(x)+i] = x[last-1-i]
	}
	return out
}

// powerToDB converts a power spectrogram to decibels in place, with the
// standard 1e-10 floor and an 80 dB dynamic-range clamp below the peak.
func powerToDB(spec [][]float64) {
	maxDB := math.Inf(-1)
	for _, row := range spec {
		for i, v := range row {
			if v < aminPower {
				v = aminPower
			}
			db := 10 * math.Log10(v)
			row[i] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}
	floor := maxDB - topDB
	for _, row := range spec {
		for i, v := range row {
			if v < floor {
				row[i] = floor
			}
		}
	}
}

// dctOrtho computes the first numOut coefficients of the orthonormal DCT-II
// of x.
func dctOrtho(x []float64, numOut int) []float64 {
	n := len(x)
	out := make([]float64, numOut)
	scale0 := math.Sqrt(1.0 / float64(n))
	scale := math.Sqrt(2.0 / float64(n))
	for i := 0; i < numOut; i++ {
		sum := 0.0
		for m := 0; m < n; m++ {
			sum += x[m] * math.Cos(math.Pi*float64(i)*(2*float64(m)+1)/(2*float64(n)))
		}
		if i == 0 {
			out[i] = sum * scale0
		} else {
			out[i] = sum * scale
		}
	}
	return out
}
