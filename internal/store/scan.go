package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"audio-capture-go/internal/audiofmt"
)

// StorageInfo is the shallow enumeration behind /storage/info: counts
// and sizes only, no audio decoding.
type StorageInfo struct {
	StorageDirectory    string   `json:"storage_directory"`
	TotalConversations  int      `json:"total_conversations"`
	TotalFiles          int      `json:"total_files"`
	TotalSizeMB         float64  `json:"total_size_mb"`
	ConversationFolders []string `json:"conversation_folders"`
}

// Info enumerates conversation folders and .wav files directly from
// disk. At most 50 folder names are echoed back.
func (s *Store) Info() (*StorageInfo, error) {
	folders, err := s.conversationDirs()
	if err != nil {
		return nil, err
	}
	totalFiles := 0
	var totalBytes int64
	for _, folder := range folders {
		entries, err := os.ReadDir(filepath.Join(s.root, folder))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".wav") {
				continue
			}
			totalFiles++
			if fi, err := e.Info(); err == nil {
				totalBytes += fi.Size()
			}
		}
	}
	echo := folders
	if len(echo) > 50 {
		echo = echo[:50]
	}
	return &StorageInfo{
		StorageDirectory:    s.root,
		TotalConversations:  len(folders),
		TotalFiles:          totalFiles,
		TotalSizeMB:         round2(float64(totalBytes) / (1024 * 1024)),
		ConversationFolders: echo,
	}, nil
}

// ScanResult is the deep analysis produced by walking every stored
// file and probing durations, independent of the ledger.
type ScanResult struct {
	TotalConversations      int                `json:"total_conversations"`
	TotalFiles              int                `json:"total_files"`
	TotalHours              float64            `json:"total_hours"`
	TotalMinutes            float64            `json:"total_minutes"`
	TotalSizeGB             float64            `json:"total_size_gb"`
	TotalSizeMB             float64            `json:"total_size_mb"`
	AverageDurationMin      float64            `json:"average_duration_min"`
	AverageSizeMB           float64            `json:"average_size_mb"`
	IncompleteConversations int                `json:"incomplete_conversations"`
	Incomplete              []ConversationScan `json:"incomplete,omitempty"`
}

// ConversationScan describes one conversation folder on disk.
type ConversationScan struct {
	Folder      string  `json:"folder"`
	Files       int     `json:"files"`
	SizeMB      float64 `json:"size_mb"`
	DurationMin float64 `json:"duration_min"`
	HasAgent    bool    `json:"has_agent"`
	HasCustomer bool    `json:"has_customer"`
}

// Scan walks every conversation folder, probing each WAV header for
// its duration. A conversation's duration is the longest channel, not
// the sum.
func (s *Store) Scan() (*ScanResult, error) {
	folders, err := s.conversationDirs()
	if err != nil {
		return nil, err
	}

	res := &ScanResult{}
	var totalBytes int64
	var totalSeconds float64
	for _, folder := range folders {
		dir := filepath.Join(s.root, folder)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		conv := ConversationScan{Folder: folder}
		var convBytes int64
		var convSeconds float64
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".wav") {
				continue
			}
			conv.Files++
			path := filepath.Join(dir, e.Name())
			if fi, err := e.Info(); err == nil {
				convBytes += fi.Size()
			}
			if sec, err := audiofmt.FileDuration(path); err == nil && sec > convSeconds {
				convSeconds = sec
			}
			lower := strings.ToLower(e.Name())
			if strings.Contains(lower, "agent") {
				conv.HasAgent = true
			} else if strings.Contains(lower, "customer") {
				conv.HasCustomer = true
			}
		}
		if conv.Files == 0 {
			continue
		}
		conv.SizeMB = round2(float64(convBytes) / (1024 * 1024))
		conv.DurationMin = round2(convSeconds / 60)

		res.TotalConversations++
		res.TotalFiles += conv.Files
		totalBytes += convBytes
		totalSeconds += convSeconds
		if !conv.HasAgent || !conv.HasCustomer {
			res.IncompleteConversations++
			if len(res.Incomplete) < 5 {
				res.Incomplete = append(res.Incomplete, conv)
			}
		}
	}

	res.TotalSizeMB = round2(float64(totalBytes) / (1024 * 1024))
	res.TotalSizeGB = round2(res.TotalSizeMB / 1024)
	res.TotalMinutes = round2(totalSeconds / 60)
	res.TotalHours = round2(totalSeconds / 3600)
	if res.TotalConversations > 0 {
		res.AverageDurationMin = round2(totalSeconds / 60 / float64(res.TotalConversations))
		res.AverageSizeMB = round2(res.TotalSizeMB / float64(res.TotalConversations))
	}
	return res, nil
}

func (s *Store) conversationDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root: %w", err)
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
