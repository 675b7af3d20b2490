package audio

import "encoding/binary"

// Downmix averages interleaved 16-bit little-endian PCM down to mono.
// Mono input is returned as is.
func Downmix(pcm []byte, channels int) []byte {
	if channels <= 1 {
		return pcm
	}
	frame := 2 * channels
	out := make([]byte, 0, len(pcm)/channels)
	for i := 0; i+frame <= len(pcm); i += frame {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(int16(binary.LittleEndian.Uint16(pcm[i+2*c:])))
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(sum/channels)))
	}
	return out
}

// Resample converts mono 16-bit PCM from one rate to another with linear
// interpolation.
func Resample(pcm []byte, from, to int) []byte {
	if from <= 0 || to <= 0 || from == to || len(pcm) < 2 {
		return pcm
	}

	n := len(pcm) / 2
	sample := func(i int) float64 {
		if i >= n {
			i = n - 1
		}
		return float64(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}

	outN := int(int64(n) * int64(to) / int64(from))
	out := make([]byte, 0, 2*outN)
	step := float64(from) / float64(to)
	for j := 0; j < outN; j++ {
		pos := float64(j) * step
		i := int(pos)
		frac := pos - float64(i)
		v := sample(i)*(1-frac) + sample(i+1)*frac
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(v)))
	}
	return out
}
