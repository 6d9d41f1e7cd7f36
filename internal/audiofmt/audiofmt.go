// Package audiofmt converts fetched audio payloads to the canonical
// storage encoding: mono, 16 kHz, 16-bit PCM in a WAV container.
package audiofmt

import "errors"

const (
	CanonicalRate     = 16000
	CanonicalChannels = 1
	CanonicalBitDepth = 16
)

var (
	// ErrEmptyAudio means the payload had zero bytes.
	ErrEmptyAudio = errors.New("audiofmt: empty audio payload")
	// ErrUnsupportedFormat means the declared content type is not in
	// the known MIME mapping. This is fatal for the request.
	ErrUnsupportedFormat = errors.New("audiofmt: unsupported content type")
	// ErrConversionFailed wraps any decode or encode fault.
	ErrConversionFailed = errors.New("audiofmt: conversion failed")
)

// Format identifies a source container/codec.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatFLAC Format = "flac"
	FormatAAC  Format = "aac"
	FormatM4A  Format = "m4a"
)

// mimeToFormat is the fixed mapping of recognized audio MIME types.
// An unlisted content type is rejected, never passed through.
var mimeToFormat = map[string]Format{
	"audio/wav":    FormatWAV,
	"audio/wave":   FormatWAV,
	"audio/x-wav":  FormatWAV,
	"audio/mpeg":   FormatMP3,
	"audio/mp3":    FormatMP3,
	"audio/ogg":    FormatOGG,
	"audio/flac":   FormatFLAC,
	"audio/x-flac": FormatFLAC,
	"audio/aac":    FormatAAC,
	"audio/x-aac":  FormatAAC,
	"audio/mp4":    FormatM4A,
	"audio/x-m4a":  FormatM4A,
}

// FormatForContentType resolves a declared content type against the
// fixed MIME mapping.
func FormatForContentType(contentType string) (Format, bool) {
	f, ok := mimeToFormat[contentType]
	return f, ok
}
