package audiofmt

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcm holds decoded samples in interleaved form before resampling.
type pcm struct {
	samples  []int
	rate     int
	channels int
}

// writeSeekBuffer adapts a byte slice to the io.WriteSeeker the wav
// encoder needs for header back-patching.
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		grown := make([]byte, need)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = w.pos + int(offset)
	case io.SeekEnd:
		next = len(w.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	w.pos = next
	return int64(next), nil
}

// encodeWAV writes mono 16-bit samples as a canonical WAV document.
func encodeWAV(samples []int, rate int) ([]byte, error) {
	out := &writeSeekBuffer{}
	enc := wav.NewEncoder(out, rate, CanonicalBitDepth, CanonicalChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: CanonicalChannels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: CanonicalBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav finalize: %w", err)
	}
	return out.buf, nil
}

func decodeWAV(data []byte) (*pcm, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode: %w", err)
	}
	if buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("wav decode: no audio frames")
	}
	return &pcm{
		samples:  buf.Data,
		rate:     buf.Format.SampleRate,
		channels: buf.Format.NumChannels,
	}, nil
}

// isCanonicalWAV reports whether the document already matches the
// canonical encoding, in which case no re-encode happens at all.
func isCanonicalWAV(data []byte) bool {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return false
	}
	return dec.SampleRate == CanonicalRate &&
		dec.NumChans == CanonicalChannels &&
		dec.BitDepth == CanonicalBitDepth &&
		dec.WavAudioFormat == 1
}

// WAVDuration reads the duration of a WAV document from its header
// without decoding the audio frames.
func WAVDuration(data []byte) (time.Duration, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("wav duration: not a valid wav document")
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration: %w", err)
	}
	return d, nil
}

// FileDuration returns the duration in seconds of a stored WAV file,
// or 0 with an error when the file cannot be read or parsed.
func FileDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("wav duration %s: not a valid wav document", path)
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration %s: %w", path, err)
	}
	return d.Seconds(), nil
}
