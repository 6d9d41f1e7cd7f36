// Package report renders progress summaries for humans and persists
// timestamped snapshot documents for rate tracking over time.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"audio-capture-go/internal/ledger"
)

// Snapshot is one persisted report: current totals plus deltas
// against the previous snapshot in the same directory.
type Snapshot struct {
	Timestamp time.Time        `json:"timestamp"`
	Stats     *ledger.Stats    `json:"stats"`
	Changes   *Changes         `json:"changes_since_last,omitempty"`
	Progress  *ledger.Progress `json:"progress,omitempty"`
}

// Changes are the deltas between two consecutive snapshots.
type Changes struct {
	NewConversations int     `json:"new_conversations"`
	NewHours         float64 `json:"new_hours"`
	NewSizeGB        float64 `json:"new_size_gb"`
	HoursElapsed     float64 `json:"hours_elapsed"`
}

// Reporter reads the ledger and writes to a stream / snapshot dir.
type Reporter struct {
	ledger *ledger.Ledger
	dir    string
	now    func() time.Time
}

func New(l *ledger.Ledger, snapshotDir string) *Reporter {
	return &Reporter{ledger: l, dir: snapshotDir, now: time.Now}
}

// Build derives the current snapshot, including deltas when a
// previous snapshot exists.
func (r *Reporter) Build(targetHours float64) (*Snapshot, error) {
	stats, err := r.ledger.Statistics()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Timestamp: r.now(), Stats: stats}
	if targetHours > 0 {
		snap.Progress = ledger.ProgressFromStats(stats, targetHours)
	}
	if prev, err := r.previous(); err == nil && prev != nil {
		snap.Changes = &Changes{
			NewConversations: stats.TotalConversations - prev.Stats.TotalConversations,
			NewHours:         stats.TotalDurationHours - prev.Stats.TotalDurationHours,
			NewSizeGB:        stats.TotalSizeGB - prev.Stats.TotalSizeGB,
			HoursElapsed:     snap.Timestamp.Sub(prev.Timestamp).Hours(),
		}
	}
	return snap, nil
}

// Persist writes the snapshot as a timestamped JSON document.
func (r *Reporter) Persist(snap *Snapshot) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot dir: %w", err)
	}
	name := filepath.Join(r.dir,
		fmt.Sprintf("hourly_%s.json", snap.Timestamp.Format("20060102_1504")))
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return name, nil
}

func (r *Reporter) previous() (*Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "hourly_*.json"))
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	sort.Strings(matches)
	data, err := os.ReadFile(matches[len(matches)-1])
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Render prints a formatted summary to the stream.
func Render(w io.Writer, snap *Snapshot) {
	header := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	header.Fprintf(w, "\n%s\n  COLLECTION PROGRESS REPORT\n%s\n", rule(), rule())
	fmt.Fprintf(w, "Generated: %s\n\n", snap.Timestamp.Format(time.RFC3339))

	s := snap.Stats
	fmt.Fprintf(w, "Conversations:        %d\n", s.TotalConversations)
	fmt.Fprintf(w, "Audio collected:      %.2f hours (%.2f minutes)\n",
		s.TotalDurationHours, s.TotalDurationMinutes)
	fmt.Fprintf(w, "Storage used:         %s\n",
		humanize.Bytes(uint64(s.TotalSizeMB*1024*1024)))
	if s.TotalConversations > 0 {
		fmt.Fprintf(w, "Average conversation: %.2f min, %.2f MB\n",
			s.AverageDurationMinutes, s.AverageSizeMB)
		fmt.Fprintf(w, "First capture:        %s\n", s.FirstCapturedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "Last capture:         %s\n", s.LastCapturedAt.Format(time.RFC3339))
	}

	if c := snap.Changes; c != nil && c.HoursElapsed > 0 {
		fmt.Fprintf(w, "\nSince last report (%.1f h ago):\n", c.HoursElapsed)
		fmt.Fprintf(w, "  +%d conversations, +%.2f hours, +%.2f GB\n",
			c.NewConversations, c.NewHours, c.NewSizeGB)
		fmt.Fprintf(w, "  Rate: %.2f conversations/hour, %.2f audio-hours/hour\n",
			float64(c.NewConversations)/c.HoursElapsed, c.NewHours/c.HoursElapsed)
	}

	if p := snap.Progress; p != nil {
		fmt.Fprintf(w, "\nTarget:               %.2f hours\n", p.TargetHours)
		fmt.Fprintf(w, "Remaining:            %.2f hours\n", p.RemainingHours)
		fmt.Fprintf(w, "  [%s] %.1f%%\n", bar(p.ProgressPercentage), p.ProgressPercentage)
		if p.TargetReached {
			ok.Fprintln(w, "  Target reached, collection can stop.")
		} else {
			warn.Fprintf(w, "  Estimated conversations still needed: ~%d\n",
				p.EstimatedConversationsNeeded)
		}
	}
	fmt.Fprintf(w, "%s\n", rule())
}

func bar(pct float64) string {
	const width = 40
	filled := int(width * pct / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func rule() string { return strings.Repeat("=", 70) }
