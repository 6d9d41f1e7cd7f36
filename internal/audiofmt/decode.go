package audiofmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// decoders maps source formats onto their decode functions. AAC and
// M4A are recognized MIME types with no pure-Go decoder available, so
// a request carrying one fails at this step, not at MIME lookup.
var decoders = map[Format]func([]byte) (*pcm, error){
	FormatWAV:  decodeWAV,
	FormatMP3:  decodeMP3,
	FormatOGG:  decodeOGG,
	FormatFLAC: decodeFLAC,
}

func decode(data []byte, f Format) (*pcm, error) {
	fn, ok := decoders[f]
	if !ok {
		return nil, fmt.Errorf("no decoder registered for %s", f)
	}
	return fn(data)
}

// decodeMP3 yields interleaved 16-bit samples. go-mp3 always emits
// two-channel 16-bit little-endian output.
func decodeMP3(data []byte) (*pcm, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 read: %w", err)
	}
	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8))
	}
	return &pcm{samples: samples, rate: dec.SampleRate(), channels: 2}, nil
}

func decodeOGG(data []byte) (*pcm, error) {
	floats, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ogg decode: %w", err)
	}
	samples := make([]int, len(floats))
	for i, v := range floats {
		samples[i] = clamp16(int(v * 32767))
	}
	return &pcm{samples: samples, rate: format.SampleRate, channels: format.Channels}, nil
}

func decodeFLAC(data []byte) (*pcm, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flac decode: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	// Rescale to 16-bit regardless of the source bit depth.
	shift := int(info.BitsPerSample) - 16
	var samples []int
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac frame: %w", err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for _, sub := range frame.Subframes {
				s := int(sub.Samples[i])
				if shift > 0 {
					s >>= shift
				} else if shift < 0 {
					s <<= -shift
				}
				samples = append(samples, clamp16(s))
			}
		}
	}
	if len(samples) == 0 {
		return nil, errors.New("flac decode: no audio frames")
	}
	return &pcm{samples: samples, rate: int(info.SampleRate), channels: int(info.NChannels)}, nil
}

func clamp16(v int) int {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
