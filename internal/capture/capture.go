// Package capture orchestrates the download-normalize-track pipeline
// for one conversation: fetch each channel, normalize to canonical
// WAV, persist, and record metadata once both channels are stored.
package capture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"audio-capture-go/internal/audiofmt"
	"audio-capture-go/internal/fetcher"
	"audio-capture-go/internal/ledger"
	"audio-capture-go/internal/logger"
	"audio-capture-go/internal/store"
)

const (
	SpeakerAgent    = "agent"
	SpeakerCustomer = "customer"
)

// Fetcher is the slice of the resource fetcher the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Resource, error)
}

// ChannelResult is the per-channel outcome inside a CaptureResult.
type ChannelResult struct {
	Speaker    string  `json:"speaker"`
	Status     string  `json:"status"` // success | failed
	Filename   string  `json:"filename,omitempty"`
	Filepath   string  `json:"filepath,omitempty"`
	FileSizeMB float64 `json:"file_size_mb,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// CaptureResult aggregates a dual-capture request.
type CaptureResult struct {
	ConversationID  string          `json:"conversation_id"`
	Downloads       []ChannelResult `json:"downloads"`
	Status          string          `json:"status"` // success | partial | failed
	TotalFiles      int             `json:"total_files"`
	MetadataTracked bool            `json:"metadata_tracked"`
	Duplicate       bool            `json:"duplicate,omitempty"`
}

// Service wires the pipeline stages together. One invocation handles
// one conversation synchronously; concurrency is the caller's.
type Service struct {
	fetcher Fetcher
	store   *store.Store
	ledger  *ledger.Ledger
}

func NewService(f Fetcher, s *store.Store, l *ledger.Ledger) *Service {
	return &Service{fetcher: f, store: s, ledger: l}
}

// SubmitSingle captures one channel under an arbitrary speaker label.
// Single captures are never recorded in the ledger.
func (s *Service) SubmitSingle(ctx context.Context, conversationID, url, label string) (*ChannelResult, error) {
	res, err := s.captureChannel(ctx, conversationID, url, label)
	return &res, err
}

// SubmitDual captures the agent channel, then the customer channel.
// An agent failure fails the whole request before any customer work
// starts. A customer failure degrades the result to partial; the
// agent file stays on disk. The ledger is written only when both
// channels stored, and a ledger error only clears MetadataTracked.
func (s *Service) SubmitDual(ctx context.Context, conversationID, agentURL, customerURL string) (*CaptureResult, error) {
	log := logger.New().WithField("component", "capture").
		WithField("conversation_id", conversationID)
	log.WithField("agent_url", agentURL).
		WithField("customer_url", customerURL).Info("dual capture started")

	out := &CaptureResult{ConversationID: conversationID}

	agent, err := s.captureChannel(ctx, conversationID, agentURL, SpeakerAgent)
	out.Downloads = append(out.Downloads, agent)
	if err != nil {
		out.Status = "failed"
		log.WithError(err).Error("agent channel failed, aborting request")
		return out, fmt.Errorf("agent channel: %w", err)
	}
	out.TotalFiles++

	if customerURL != "" {
		customer, err := s.captureChannel(ctx, conversationID, customerURL, SpeakerCustomer)
		out.Downloads = append(out.Downloads, customer)
		if err == nil {
			out.TotalFiles++
		} else {
			log.WithError(err).Warn("customer channel failed, keeping agent file")
		}
	}

	out.Status = "success"
	if out.TotalFiles < len(out.Downloads) {
		out.Status = "partial"
	}

	// Only complete dual captures reach the ledger.
	if out.TotalFiles == 2 {
		_, err := s.ledger.Insert(conversationID,
			ledger.ChannelInput{StoragePath: s.store.Path(conversationID, SpeakerAgent), SourceURL: agentURL},
			ledger.ChannelInput{StoragePath: s.store.Path(conversationID, SpeakerCustomer), SourceURL: customerURL},
		)
		switch {
		case err == nil:
			out.MetadataTracked = true
		case errors.Is(err, ledger.ErrAlreadyExists):
			out.Duplicate = true
			log.Warn("conversation already recorded, ledger unchanged")
		default:
			log.WithError(err).Error("ledger write failed, capture still successful")
		}
	}
	return out, nil
}

// captureChannel runs fetch -> normalize -> store for one channel.
// Failures are terminal for the request; there is no retrying state.
func (s *Service) captureChannel(ctx context.Context, conversationID, url, label string) (ChannelResult, error) {
	res := ChannelResult{Speaker: label, Status: "failed"}

	resource, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	wavData, err := audiofmt.Normalize(resource.Body, resource.ContentType)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	path, size, err := s.store.Save(conversationID, label, wavData)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Status = "success"
	res.Filepath = path
	res.Filename = filepath.Base(path)
	res.FileSizeMB = float64(size) / (1024 * 1024)
	return res, nil
}
