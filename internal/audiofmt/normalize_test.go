package audiofmt

import (
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWAV synthesizes a sine-tone WAV with the given shape.
func makeWAV(t *testing.T, rate, channels int, seconds float64) []byte {
	t.Helper()
	frames := int(float64(rate) * seconds)
	samples := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	out := &writeSeekBuffer{}
	enc := wav.NewEncoder(out, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return out.buf
}

func TestNormalizeCanonicalPassthrough(t *testing.T) {
	t.Parallel()
	in := makeWAV(t, CanonicalRate, 1, 2.0)

	out, err := Normalize(in, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, in, out, "canonical input must be returned byte-identical")
}

func TestNormalizeResamplesAndDownmixes(t *testing.T) {
	t.Parallel()
	in := makeWAV(t, 44100, 2, 3.0)

	out, err := Normalize(in, "audio/wav")
	require.NoError(t, err)
	require.True(t, isCanonicalWAV(out))

	d, err := WAVDuration(out)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, d.Seconds(), 0.01, "duration preserved within rounding")
}

func TestNormalizeEmptyPayload(t *testing.T) {
	t.Parallel()
	_, err := Normalize(nil, "audio/wav")
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestNormalizeUnknownContentType(t *testing.T) {
	t.Parallel()
	in := makeWAV(t, CanonicalRate, 1, 1.0)

	_, err := Normalize(in, "application/octet-stream")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNormalizeRecognizedButUndecodable(t *testing.T) {
	t.Parallel()
	// audio/aac is in the MIME mapping but has no registered decoder,
	// so it fails at the conversion step rather than MIME lookup.
	_, err := Normalize([]byte{0xff, 0xf1, 0x00, 0x00}, "audio/aac")
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestNormalizeCorruptStream(t *testing.T) {
	t.Parallel()
	_, err := Normalize([]byte("not a wav document at all"), "audio/wav")
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestWAVDurationProbe(t *testing.T) {
	t.Parallel()
	in := makeWAV(t, CanonicalRate, 1, 2.5)

	d, err := WAVDuration(in)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, d.Seconds(), 0.01)
}

func TestResamplePreservesDuration(t *testing.T) {
	t.Parallel()
	mono := make([]int, 44100) // one second at 44.1 kHz
	out := resample(mono, 44100, CanonicalRate)
	assert.Equal(t, CanonicalRate, len(out))
}

func TestDownmixAverages(t *testing.T) {
	t.Parallel()
	stereo := []int{100, 300, -200, -400}
	mono := downmix(stereo, 2)
	assert.Equal(t, []int{200, -300}, mono)
}

func TestFormatForContentType(t *testing.T) {
	t.Parallel()
	for mime, want := range map[string]Format{
		"audio/mpeg":  FormatMP3,
		"audio/x-wav": FormatWAV,
		"audio/flac":  FormatFLAC,
		"audio/ogg":   FormatOGG,
	} {
		f, ok := FormatForContentType(mime)
		require.True(t, ok, mime)
		assert.Equal(t, want, f)
	}
	_, ok := FormatForContentType("video/mp4")
	assert.False(t, ok)
}
