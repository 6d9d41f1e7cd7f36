package audiofmt

// downmix averages interleaved channels into mono. A mono input is
// returned as-is.
func downmix(samples []int, channels int) []int {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / channels
	}
	return mono
}

// resample converts mono samples between sample rates by linear
// interpolation. Duration is preserved within one frame of rounding.
func resample(mono []int, from, to int) []int {
	if from == to || len(mono) == 0 {
		return mono
	}
	outLen := int(int64(len(mono)) * int64(to) / int64(from))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]int, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(mono)-1 {
			out[i] = mono[len(mono)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = clamp16(int(float64(mono[j])*(1-frac) + float64(mono[j+1])*frac))
	}
	return out
}
