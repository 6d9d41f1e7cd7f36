package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"audio-capture-go/internal/audiofmt"
	"audio-capture-go/internal/capture"
	"audio-capture-go/internal/config"
	"audio-capture-go/internal/fetcher"
	"audio-capture-go/internal/ledger"
	"audio-capture-go/internal/logger"
	"audio-capture-go/internal/store"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "audio-capture-go").Info("starting service")

	cfg := config.FromEnv()
	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create storage directory")
	}
	log.WithField("storage_dir", cfg.StorageDir).Info("audio storage ready")

	docStore, err := openDocumentStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open ledger backend")
	}
	defer docStore.Close()

	led := ledger.New(docStore)
	st := store.New(cfg.StorageDir)
	svc := capture.NewService(fetcher.New(cfg.ProbeTimeout, cfg.FetchTimeout), st, led)

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"service":     "Audio Capture API",
			"version":     "1.0.0",
			"description": "Download and store conversation audio for diarization model training",
			"endpoints": map[string]string{
				"/download/single": "Download single audio file",
				"/download/dual":   "Download two audio files (agent + customer)",
				"/storage/info":    "Storage overview from direct enumeration",
				"/statistics":      "Ledger statistics and target progress",
				"/health":          "Health check",
			},
		})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		writeJSON(w, http.StatusOK, map[string]string{
			"status":      "healthy",
			"storage_dir": cfg.StorageDir,
		})
	})

	mux.HandleFunc("/download/single", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "download_single")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		conversationID := r.FormValue("conversation_id")
		audioURL := r.FormValue("audio_url")
		label := r.FormValue("speaker_label")
		if label == "" {
			label = "speaker"
		}
		if conversationID == "" || audioURL == "" {
			http.Error(w, "missing conversation_id or audio_url", http.StatusBadRequest)
			return
		}
		reqLog = reqLog.WithField("conversation_id", conversationID).WithField("audio_url", audioURL)
		reqLog.Info("single download request received")

		res, err := svc.SubmitSingle(r.Context(), conversationID, audioURL, label)
		if err != nil {
			reqLog.WithError(err).Warn("single download failed")
			writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":          "success",
			"conversation_id": conversationID,
			"speaker_label":   label,
			"filename":        res.Filename,
			"filepath":        res.Filepath,
			"file_size_mb":    res.FileSizeMB,
		})
	})

	mux.HandleFunc("/download/dual", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "download_dual")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		conversationID := r.FormValue("conversation_id")
		agentURL := r.FormValue("audio_url_agent")
		customerURL := r.FormValue("audio_url_customer")
		if conversationID == "" || agentURL == "" {
			http.Error(w, "missing conversation_id or audio_url_agent", http.StatusBadRequest)
			return
		}
		reqLog = reqLog.WithField("conversation_id", conversationID)
		reqLog.Info("dual download request received")

		start := time.Now()
		result, err := svc.SubmitDual(r.Context(), conversationID, agentURL, customerURL)
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("capture finished")
		if err != nil {
			// Agent channel failed: nothing worth returning succeeded.
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("/storage/info", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "storage_info")
		info, err := st.Info()
		if err != nil {
			reqLog.WithError(err).Error("storage scan failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})

	mux.HandleFunc("/statistics", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "statistics")
		stats, err := led.Statistics()
		if err != nil {
			reqLog.WithError(err).Error("statistics failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp := map[string]interface{}{
			"summary":   stats,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if t := r.URL.Query().Get("target_hours"); t != "" {
			target, err := strconv.ParseFloat(t, 64)
			if err != nil {
				http.Error(w, "invalid target_hours", http.StatusBadRequest)
				return
			}
			resp["progress"] = ledger.ProgressFromStats(stats, target)
		}
		writeJSON(w, http.StatusOK, resp)
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func openDocumentStore(cfg config.Config) (ledger.DocumentStore, error) {
	switch cfg.LedgerBackend {
	case "bolt":
		return ledger.NewBoltStore(cfg.LedgerPath)
	case "", "file":
		return ledger.NewFileStore(cfg.LedgerPath), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fetcher.ErrInvalidResource),
		errors.Is(err, fetcher.ErrFetchFailed),
		errors.Is(err, audiofmt.ErrEmptyAudio),
		errors.Is(err, audiofmt.ErrUnsupportedFormat),
		errors.Is(err, audiofmt.ErrConversionFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
