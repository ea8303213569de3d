package chat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unisynhq/unisyn-web/internal/pkg/env"
)

const defaultAPIBaseURL = "http://localhost:8000/api"

// Client forwards chat prompts to the external inference API.
type Client struct {
	APIBaseURL string
	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		APIBaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("LLM_API_BASE_URL", defaultAPIBaseURL)), "/"),
		HTTPClient: &http.Client{
			// Inference can be slow; this bounds a hung upstream, not a
			// normal completion.
			Timeout: 60 * time.Second,
		},
	}
}

// Forward relays the prompt payload to the inference API and returns its
// JSON response verbatim. The payload is passed through untouched.
func (c *Client) Forward(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat upstream failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}
