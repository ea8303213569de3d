package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unisynhq/unisyn-web/internal/pkg/env"
)

const defaultPaddleAPIBaseURL = "https://sandbox-api.paddle.com"

// PaddleClient creates checkout transactions against the Paddle API.
type PaddleClient struct {
	APIKey     string
	APIBaseURL string
	SuccessURL string
	CancelURL  string

	HTTPClient *http.Client
}

func NewPaddleClientFromEnv() *PaddleClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8787"), "/")

	return &PaddleClient{
		APIKey:     strings.TrimSpace(env.GetEnv("PADDLE_API_KEY", "")),
		APIBaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("PADDLE_API_BASE_URL", defaultPaddleAPIBaseURL)), "/"),
		SuccessURL: base + "/success",
		CancelURL:  base + "/pricing",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type paddleTransactionItem struct {
	PriceID  string `json:"price_id"`
	Quantity int    `json:"quantity"`
}

type paddleTransactionRequest struct {
	Items    []paddleTransactionItem `json:"items"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	CustomData map[string]string `json:"custom_data"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
}

// CreateTransaction creates a one-item checkout session and returns the
// hosted checkout URL.
func (c *PaddleClient) CreateTransaction(ctx context.Context, priceID, userID, email string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", errors.New("PADDLE_API_KEY is not configured")
	}
	if strings.TrimSpace(priceID) == "" {
		return "", errors.New("priceId is required")
	}

	reqBody := paddleTransactionRequest{
		Items: []paddleTransactionItem{
			{PriceID: strings.TrimSpace(priceID), Quantity: 1},
		},
		CustomData: map[string]string{"userId": strings.TrimSpace(userID)},
		SuccessURL: c.SuccessURL,
		CancelURL:  c.CancelURL,
	}
	reqBody.Customer.Email = strings.TrimSpace(email)

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/transactions", bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Paddle-Version", "1")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var out struct {
		Error *struct {
			Detail string `json:"detail"`
		} `json:"error"`
		Data struct {
			CheckoutURL string `json:"checkout_url"`
			Checkout    struct {
				URL string `json:"url"`
			} `json:"checkout"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("paddle transaction response unreadable: status=%d body=%s", resp.StatusCode, string(body))
	}

	if out.Error != nil {
		detail := strings.TrimSpace(out.Error.Detail)
		if detail == "" {
			detail = "checkout session error"
		}
		return "", errors.New(detail)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paddle transaction failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	// Paddle exposes the hosted checkout URL at either of these two places
	// depending on API version.
	checkoutURL := strings.TrimSpace(out.Data.CheckoutURL)
	if checkoutURL == "" {
		checkoutURL = strings.TrimSpace(out.Data.Checkout.URL)
	}
	if checkoutURL == "" {
		return "", errors.New("no checkout URL returned by Paddle")
	}
	return checkoutURL, nil
}
