package capture

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-capture-go/internal/fetcher"
	"audio-capture-go/internal/ledger"
	"audio-capture-go/internal/store"
)

// makeWAV synthesizes a WAV payload in memory via a temp file.
func makeWAV(t *testing.T, rate, channels int, seconds float64) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	frames := int(float64(rate) * seconds)
	samples := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(9000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// audioMux serves named WAV payloads under /<name> with audio/wav
// content type.
func audioMux(t *testing.T, payloads map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		if r.Method == http.MethodHead {
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T) (*Service, *store.Store, *ledger.Ledger) {
	t.Helper()
	st := store.New(t.TempDir())
	led := ledger.New(ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json")))
	f := fetcher.New(2*time.Second, 10*time.Second)
	return NewService(f, st, led), st, led
}

func TestSubmitDualEndToEnd(t *testing.T) {
	t.Parallel()
	srv := audioMux(t, map[string][]byte{
		"/agent.wav":    makeWAV(t, 16000, 1, 30),
		"/customer.wav": makeWAV(t, 16000, 1, 45),
	})
	svc, st, led := newTestService(t)

	result, err := svc.SubmitDual(context.Background(), "conv-001",
		srv.URL+"/agent.wav", srv.URL+"/customer.wav")
	require.NoError(t, err)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 2, result.TotalFiles)
	assert.True(t, result.MetadataTracked)
	assert.False(t, result.Duplicate)
	require.Len(t, result.Downloads, 2)
	assert.Equal(t, "conv-001_agent.wav", result.Downloads[0].Filename)
	assert.Equal(t, "conv-001_customer.wav", result.Downloads[1].Filename)

	records, err := led.All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.InDelta(t, 45.0, rec.Total.DurationSeconds, 0.1, "aggregate duration is the longer channel")

	// Aggregate size must match the stored files, not the sources.
	agentInfo, err := os.Stat(st.Path("conv-001", "agent"))
	require.NoError(t, err)
	customerInfo, err := os.Stat(st.Path("conv-001", "customer"))
	require.NoError(t, err)
	assert.Equal(t, agentInfo.Size()+customerInfo.Size(), rec.Total.SizeBytes)
}

func TestSubmitDualNormalizesNonCanonicalSources(t *testing.T) {
	t.Parallel()
	srv := audioMux(t, map[string][]byte{
		"/agent.wav":    makeWAV(t, 44100, 2, 10),
		"/customer.wav": makeWAV(t, 44100, 2, 8),
	})
	svc, _, led := newTestService(t)

	result, err := svc.SubmitDual(context.Background(), "conv-hifi",
		srv.URL+"/agent.wav", srv.URL+"/customer.wav")
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)

	records, err := led.All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 10.0, records[0].Total.DurationSeconds, 0.1,
		"resampling preserves duration")
}

func TestSubmitDualDuplicateIsNoOp(t *testing.T) {
	t.Parallel()
	srv := audioMux(t, map[string][]byte{
		"/agent.wav":    makeWAV(t, 16000, 1, 5),
		"/customer.wav": makeWAV(t, 16000, 1, 5),
	})
	svc, _, led := newTestService(t)

	first, err := svc.SubmitDual(context.Background(), "conv-dup",
		srv.URL+"/agent.wav", srv.URL+"/customer.wav")
	require.NoError(t, err)
	assert.True(t, first.MetadataTracked)

	second, err := svc.SubmitDual(context.Background(), "conv-dup",
		srv.URL+"/agent.wav", srv.URL+"/customer.wav")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.MetadataTracked)

	records, err := led.All()
	require.NoError(t, err)
	assert.Len(t, records, 1, "second insert must not modify the ledger")
}

func TestSubmitDualPartialCaptureNeverLedgered(t *testing.T) {
	t.Parallel()
	srv := audioMux(t, map[string][]byte{
		"/agent.wav": makeWAV(t, 16000, 1, 5),
		// customer.wav intentionally missing
	})
	svc, st, led := newTestService(t)

	result, err := svc.SubmitDual(context.Background(), "conv-partial",
		srv.URL+"/agent.wav", srv.URL+"/customer.wav")
	require.NoError(t, err, "customer failure degrades, not aborts")

	assert.Equal(t, "partial", result.Status)
	assert.Equal(t, 1, result.TotalFiles)
	assert.False(t, result.MetadataTracked)

	// Agent file stays on disk; the ledger stays empty.
	_, err = os.Stat(st.Path("conv-partial", "agent"))
	assert.NoError(t, err)
	stats, err := led.Statistics()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalConversations)
}

func TestSubmitDualAgentFailureAborts(t *testing.T) {
	t.Parallel()
	srv := audioMux(t, map[string][]byte{
		"/customer.wav": makeWAV(t, 16000, 1, 5),
	})
	svc, st, led := newTestService(t)

	result, err := svc.SubmitDual(context.Background(), "conv-abort",
		srv.URL+"/agent.wav", srv.URL+"/customer.wav")
	require.Error(t, err)
	assert.Equal(t, "failed", result.Status)
	require.Len(t, result.Downloads, 1, "customer work never starts after agent failure")

	_, statErr := os.Stat(st.Path("conv-abort", "customer"))
	assert.True(t, os.IsNotExist(statErr))
	stats, err := led.Statistics()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalConversations)
}

func TestSubmitDualRejectsNonAudioPayload(t *testing.T) {
	t.Parallel()
	// Probe sees audio, but the transfer declares octet-stream: the
	// normalizer must reject it before anything reaches the store.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "audio/wav")
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("binary junk"))
	}))
	t.Cleanup(srv.Close)
	svc, st, _ := newTestService(t)

	_, err := svc.SubmitDual(context.Background(), "conv-junk", srv.URL+"/x", "")
	require.Error(t, err)
	_, statErr := os.Stat(st.Path("conv-junk", "agent"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSubmitSingleNeverLedgered(t *testing.T) {
	t.Parallel()
	srv := audioMux(t, map[string][]byte{
		"/solo.wav": makeWAV(t, 16000, 1, 5),
	})
	svc, st, led := newTestService(t)

	res, err := svc.SubmitSingle(context.Background(), "conv-solo", srv.URL+"/solo.wav", "speaker")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, st.Path("conv-solo", "speaker"), res.Filepath)

	stats, err := led.Statistics()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalConversations)
}
