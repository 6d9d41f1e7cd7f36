// Package fetcher retrieves remote audio resources with bounded
// timeouts. Validation happens against a HEAD probe before any full
// transfer is attempted.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"audio-capture-go/internal/logger"
)

var (
	// ErrInvalidResource means the URL does not declare an audio
	// content type.
	ErrInvalidResource = errors.New("fetcher: resource is not audio")
	// ErrFetchFailed wraps any transport failure, timeout, or
	// non-success status.
	ErrFetchFailed = errors.New("fetcher: fetch failed")
)

// Resource is a fully retrieved remote audio payload.
type Resource struct {
	Body        []byte
	ContentType string
}

// Fetcher validates and downloads remote audio. It never retries;
// retry policy belongs to the caller.
type Fetcher struct {
	probeClient *http.Client
	fetchClient *http.Client
}

func New(probeTimeout, fetchTimeout time.Duration) *Fetcher {
	return &Fetcher{
		probeClient: &http.Client{Timeout: probeTimeout},
		fetchClient: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch probes the URL for an audio content type and downloads it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Resource, error) {
	log := logger.New().WithField("component", "fetcher").WithField("url", url)

	if err := f.probe(ctx, url); err != nil {
		log.WithError(err).Warn("probe rejected url")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := f.fetchClient.Do(req)
	if err != nil {
		log.WithError(err).Error("download failed")
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("status", resp.StatusCode).Error("download returned non-success status")
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	log.WithField("bytes", len(body)).Info("resource downloaded")
	return &Resource{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// probe does a metadata-only HEAD request and checks for an audio/*
// content type. Any transport error counts as an invalid resource,
// matching the pre-transfer validation contract.
func (f *Fetcher) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	resp, err := f.probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	defer resp.Body.Close()
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "audio/") {
		return fmt.Errorf("%w: content type %q", ErrInvalidResource, ct)
	}
	return nil
}
