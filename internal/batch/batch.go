// Package batch drives bulk captures from a CSV of conversation
// rows, posting each one to a running capture service.
package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"audio-capture-go/internal/capture"
	"audio-capture-go/internal/logger"
)

// Row is one CSV entry to capture.
type Row struct {
	ConversationID string
	AgentURL       string
	CustomerURL    string
}

// ItemResult is the recorded outcome for one row.
type ItemResult struct {
	ConversationID  string                 `json:"conversation_id"`
	Success         bool                   `json:"success"`
	DurationSeconds float64                `json:"duration_seconds"`
	Response        *capture.CaptureResult `json:"response,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// RunResult summarizes a whole batch run.
type RunResult struct {
	StartTime          time.Time    `json:"start_time"`
	EndTime            time.Time    `json:"end_time"`
	CSVFile            string       `json:"csv_file"`
	TotalConversations int          `json:"total_conversations"`
	Successful         int          `json:"successful"`
	Failed             int          `json:"failed"`
	Details            []ItemResult `json:"details"`
}

// ReadCSV loads conversation rows. The header must carry
// conversation_id, agent_url, and customer_url columns; rows without
// an id are skipped.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[h] = i
	}
	idIdx, ok := idx["conversation_id"]
	if !ok {
		return nil, fmt.Errorf("csv missing conversation_id column")
	}
	agentIdx, ok := idx["agent_url"]
	if !ok {
		return nil, fmt.Errorf("csv missing agent_url column")
	}
	customerIdx, hasCustomer := idx["customer_url"]

	var rows []Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if idIdx >= len(rec) || rec[idIdx] == "" {
			continue
		}
		row := Row{ConversationID: rec[idIdx]}
		if agentIdx < len(rec) {
			row.AgentURL = rec[agentIdx]
		}
		if hasCustomer && customerIdx < len(rec) {
			row.CustomerURL = rec[customerIdx]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Run processes every row with an inter-request delay. One bad row
// never halts the batch; the tally is printed at the end and the full
// result document is returned for persistence.
func Run(w io.Writer, client *Client, csvFile string, rows []Row, delay time.Duration) *RunResult {
	log := logger.New().WithField("component", "batch")
	ok := color.New(color.FgGreen)
	fail := color.New(color.FgRed)

	result := &RunResult{
		StartTime:          time.Now(),
		CSVFile:            csvFile,
		TotalConversations: len(rows),
	}

	for i, row := range rows {
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(rows), shortID(row.ConversationID))
		start := time.Now()
		resp, err := client.SubmitDual(row.ConversationID, row.AgentURL, row.CustomerURL)
		item := ItemResult{
			ConversationID:  row.ConversationID,
			DurationSeconds: time.Since(start).Seconds(),
			Response:        resp,
		}
		if err != nil {
			item.Error = err.Error()
			result.Failed++
			fail.Fprintf(w, "  FAILED: %s\n", err)
			log.WithField("conversation_id", row.ConversationID).WithError(err).Warn("capture failed")
		} else {
			item.Success = true
			result.Successful++
			ok.Fprintf(w, "  %s (%.1fs)\n", resp.Status, item.DurationSeconds)
			for _, d := range resp.Downloads {
				if d.Status == "success" {
					fmt.Fprintf(w, "    %-8s -> %s (%.2f MB)\n", d.Speaker, d.Filename, d.FileSizeMB)
				} else {
					fail.Fprintf(w, "    %-8s -> FAILED: %s\n", d.Speaker, d.Error)
				}
			}
			if resp.Duplicate {
				fmt.Fprintln(w, "    (already recorded, skipped by ledger)")
			}
		}
		result.Details = append(result.Details, item)

		if i < len(rows)-1 && delay > 0 {
			time.Sleep(delay)
		}
	}

	result.EndTime = time.Now()
	fmt.Fprintf(w, "\nTotal: %d  ", result.TotalConversations)
	ok.Fprintf(w, "Successful: %d  ", result.Successful)
	fail.Fprintf(w, "Failed: %d\n", result.Failed)
	return result
}

// SaveResults writes the run document next to the CSV.
func SaveResults(result *RunResult) (string, error) {
	name := fmt.Sprintf("download_results_%s.json", result.StartTime.Format("20060102_150405"))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return name, nil
}

func shortID(id string) string {
	if len(id) > 16 {
		return id[:8] + "..." + id[8:16]
	}
	return id
}
