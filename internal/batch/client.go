package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"audio-capture-go/internal/capture"
)

// Client talks to a running capture service. Transient failures (5xx,
// transport errors) are retried with exponential backoff here, on the
// caller side of the fetch pipeline.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Healthy checks the /health endpoint.
func (c *Client) Healthy() bool {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// SubmitDual posts one conversation's URLs to /download/dual.
func (c *Client) SubmitDual(conversationID, agentURL, customerURL string) (*capture.CaptureResult, error) {
	form := url.Values{
		"conversation_id":    {conversationID},
		"audio_url_agent":    {agentURL},
		"audio_url_customer": {customerURL},
	}

	var result capture.CaptureResult
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	var lastErr error
	op := func() error {
		resp, err := c.httpClient.PostForm(c.baseURL+"/download/dual", form)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			// Bad request or bad source URL: retrying will not help.
			lastErr = fmt.Errorf("capture rejected: %s", string(body))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, &result); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return nil, lastErr
	}
	return &result, nil
}
