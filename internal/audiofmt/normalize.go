package audiofmt

import (
	"fmt"

	"audio-capture-go/internal/logger"
)

// Normalize converts raw audio bytes with a declared content type to
// the canonical encoding. A payload that is already canonical WAV is
// returned unchanged.
func Normalize(data []byte, contentType string) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	format, ok := FormatForContentType(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}

	if format == FormatWAV && isCanonicalWAV(data) {
		return data, nil
	}

	src, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	mono := downmix(src.samples, src.channels)
	mono = resample(mono, src.rate, CanonicalRate)

	out, err := encodeWAV(mono, CanonicalRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	logger.New().WithField("component", "audiofmt").
		WithField("source_format", string(format)).
		WithField("source_rate", src.rate).
		WithField("source_channels", src.channels).
		Debug("normalized to canonical wav")
	return out, nil
}
