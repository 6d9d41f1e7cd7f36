package ledger

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"audio-capture-go/internal/audiofmt"
	"audio-capture-go/internal/logger"
)

// ErrAlreadyExists signals a duplicate conversation id. It is a no-op
// outcome, not a capture failure.
var ErrAlreadyExists = errors.New("ledger: conversation already exists")

// DurationProber reads the duration in seconds of a stored audio
// file. Injected so tests can avoid real decoding.
type DurationProber func(path string) (float64, error)

// ChannelInput names the stored file and source URL for one channel
// of an insert. Size, duration, and presence are probed by the ledger
// itself at insert time.
type ChannelInput struct {
	StoragePath string
	SourceURL   string
}

// Ledger records captured conversations through an injected document
// store. All writes go through an in-process mutex: the document is
// fully rewritten on every insert, so concurrent writers must be
// serialized.
type Ledger struct {
	mu    sync.Mutex
	store DocumentStore
	probe DurationProber
	now   func() time.Time
}

func New(store DocumentStore) *Ledger {
	return &Ledger{
		store: store,
		probe: audiofmt.FileDuration,
		now:   time.Now,
	}
}

// WithProber overrides the duration prober, mainly for tests.
func (l *Ledger) WithProber(p DurationProber) *Ledger {
	l.probe = p
	return l
}

// Insert records a conversation whose channels are already on disk.
// A duplicate id returns ErrAlreadyExists and leaves the document
// untouched. Channels missing on disk are recorded with present=false
// and zero size/duration; that does not block the write.
func (l *Ledger) Insert(conversationID string, agent, customer ChannelInput) (*ConversationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.Load()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ConversationID == conversationID {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, conversationID)
		}
	}

	rec := ConversationRecord{
		ConversationID: conversationID,
		CapturedAt:     l.now(),
		Agent:          l.probeChannel(agent),
		Customer:       l.probeChannel(customer),
	}
	rec.Total = Aggregate{
		SizeBytes:       rec.Agent.SizeBytes + rec.Customer.SizeBytes,
		DurationSeconds: math.Max(rec.Agent.DurationSeconds, rec.Customer.DurationSeconds),
	}

	records = append(records, rec)
	if err := l.store.Save(records); err != nil {
		return nil, err
	}
	logger.New().WithField("component", "ledger").
		WithField("conversation_id", conversationID).
		WithField("duration_min", rec.Total.DurationSeconds/60).
		Info("conversation recorded")
	return &rec, nil
}

func (l *Ledger) probeChannel(in ChannelInput) ChannelInfo {
	info := ChannelInfo{StoragePath: in.StoragePath, SourceURL: in.SourceURL}
	fi, err := os.Stat(in.StoragePath)
	if err != nil {
		return info
	}
	info.Present = true
	info.SizeBytes = fi.Size()
	if sec, err := l.probe(in.StoragePath); err == nil {
		info.DurationSeconds = sec
	} else {
		logger.New().WithField("component", "ledger").
			WithField("path", in.StoragePath).
			WithError(err).Warn("duration probe failed")
	}
	return info
}

// All returns every record in insertion order.
func (l *Ledger) All() ([]ConversationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Load()
}

// Statistics derives aggregates over all records. An empty ledger
// yields all-zero numbers and absent timestamps, never an error.
func (l *Ledger) Statistics() (*Stats, error) {
	records, err := l.All()
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalConversations: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	var totalSeconds float64
	var totalBytes int64
	for _, r := range records {
		totalSeconds += r.Total.DurationSeconds
		totalBytes += r.Total.SizeBytes
	}
	n := float64(len(records))
	stats.TotalDurationMinutes = totalSeconds / 60
	stats.TotalDurationHours = totalSeconds / 3600
	stats.TotalSizeMB = float64(totalBytes) / (1024 * 1024)
	stats.TotalSizeGB = stats.TotalSizeMB / 1024
	stats.AverageDurationMinutes = stats.TotalDurationMinutes / n
	stats.AverageSizeMB = stats.TotalSizeMB / n

	first := records[0].CapturedAt
	last := records[len(records)-1].CapturedAt
	stats.FirstCapturedAt = &first
	stats.LastCapturedAt = &last
	return stats, nil
}

// ProgressToward derives collection progress from current statistics.
// The conversation estimate extrapolates from the historical average
// duration and is 0 when there is no history to extrapolate from.
func (l *Ledger) ProgressToward(targetHours float64) (*Progress, error) {
	stats, err := l.Statistics()
	if err != nil {
		return nil, err
	}
	return ProgressFromStats(stats, targetHours), nil
}

// ProgressFromStats computes progress math on already-derived stats.
func ProgressFromStats(stats *Stats, targetHours float64) *Progress {
	p := &Progress{
		TargetHours:    targetHours,
		CurrentHours:   stats.TotalDurationHours,
		RemainingHours: targetHours - stats.TotalDurationHours,
		TargetReached:  stats.TotalDurationHours >= targetHours,
	}
	if targetHours > 0 {
		p.ProgressPercentage = stats.TotalDurationHours / targetHours * 100
	}
	if stats.TotalConversations > 0 && p.RemainingHours > 0 {
		avgHours := stats.TotalDurationHours / float64(stats.TotalConversations)
		if avgHours > 0 {
			p.EstimatedConversationsNeeded = int(p.RemainingHours / avgHours)
		}
	}
	return p
}
