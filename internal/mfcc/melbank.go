package mfcc

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above. This is the
// librosa default (htk=False); using the HTK formula here would shift every
// coefficient.
const (
	melLinearStep = 200.0 / 3.0 // Hz per mel in the linear region
	melMinLogHz   = 1000.0
	melMinLogMel  = melMinLogHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz < melMinLogHz {
		return hz / melLinearStep
	}
	return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
}

func melToHz(mel float64) float64 {
	if mel < melMinLogMel {
		return mel * melLinearStep
	}
	return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
}

// filterWeight is one nonzero filterbank entry: weight w applied to FFT
// bin k. Filters are stored sparsely since each triangle touches only a
// narrow band of bins.
type filterWeight struct {
	k int
	w float64
}

type melFilter struct {
	weights []filterWeight
}

// melFilterBank builds numMels triangular filters spanning 0..sampleRate/2
// with Slaney area normalization, matching librosa.filters.mel defaults.
func melFilterBank(numMels, fftSize, sampleRate int) []melFilter {
	halfN := fftSize/2 + 1
	fmax := float64(sampleRate) / 2.0

	// numMels + 2 band edges, evenly spaced on the mel scale.
	edges := make([]float64, numMels+2)
	melLow := hzToMel(0)
	melHigh := hzToMel(fmax)
	for i := range edges {
		edges[i] = melToHz(melLow + (melHigh-melLow)*float64(i)/float64(numMels+1))
	}

	fftFreqs := make([]float64, halfN)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	bank := make([]melFilter, numMels)
	for m := 0; m < numMels; m++ {
		lower, center, upper := edges[m], edges[m+1], edges[m+2]
		// Slaney normalization keeps per-band energy comparable across
		// bandwidths.
		enorm := 2.0 / (upper - lower)

		var weights []filterWeight
		for k, f := range fftFreqs {
			rising := (f - lower) / (center - lower)
			falling := (upper - f) / (upper - center)
			w := math.Min(rising, falling)
			if w > 0 {
				weights = append(weights, filterWeight{k: k, w: w * enorm})
			}
		}
		bank[m] = melFilter{weights: weights}
	}
	return bank
}
