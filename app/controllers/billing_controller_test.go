package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unisynhq/unisyn-web/app/models"
	"github.com/unisynhq/unisyn-web/internal/pkg/billing"
	"github.com/unisynhq/unisyn-web/internal/pkg/userstore"
)

type fakeWebhookRepo struct {
	events map[string]*models.WebhookEvent
	nextID uint
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{events: make(map[string]*models.WebhookEvent)}
}

func (r *fakeWebhookRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		return false, stored, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[key] = event
	return true, event, nil
}

func (r *fakeWebhookRepo) MarkWebhookProcessed(id uint, processingError string) error {
	return nil
}

const testWebhookSecret = "whsec_test"

func signWebhookBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return fmt.Sprintf("ts=%d,h1=%s", time.Now().Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func setupWebhookTest(t *testing.T) (*fiber.App, *userstore.MemoryStore) {
	t.Helper()
	t.Setenv("PADDLE_WEBHOOK_SECRET", testWebhookSecret)

	store := userstore.NewMemoryStore()
	userStore = store
	billingService = billing.NewService(newFakeWebhookRepo())

	app := fiber.New()
	app.Post("/webhooks/paddle", HandlePaddleWebhook)
	return app, store
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Paddle-Signature", signature)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHandlePaddleWebhook_RejectsBadSignature(t *testing.T) {
	app, store := setupWebhookTest(t)
	body := []byte(`{"event_type":"subscription.created","data":{"customer":{"email":"a@x.com"}}}`)

	// Missing header
	resp := postWebhook(t, app, body, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Wrong secret
	mac := hmac.New(sha256.New, []byte("not-the-secret"))
	mac.Write(body)
	forged := fmt.Sprintf("ts=%d,h1=%s", time.Now().Unix(), hex.EncodeToString(mac.Sum(nil)))
	resp = postWebhook(t, app, body, forged)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Stale timestamp with otherwise-valid signature
	macOK := hmac.New(sha256.New, []byte(testWebhookSecret))
	macOK.Write(body)
	stale := fmt.Sprintf("ts=%d,h1=%s", time.Now().Add(-10*time.Minute).Unix(), hex.EncodeToString(macOK.Sum(nil)))
	resp = postWebhook(t, app, body, stale)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 0, store.Writes(), "rejected deliveries must never reach the store")
}

func TestHandlePaddleWebhook_SubscriptionCreated(t *testing.T) {
	app, store := setupWebhookTest(t)
	body := []byte(`{
		"event_type": "subscription.created",
		"event_id": "evt_1",
		"data": {
			"id": "sub_1",
			"customer": { "email": "a@x.com" },
			"items": [ { "price": { "id": "pri_1" } } ]
		}
	}`)

	resp := postWebhook(t, app, body, signWebhookBody(body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(payload))

	rec, err := store.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, rec.SubscriptionStatus)
	assert.Equal(t, "sub_1", rec.SubscriptionID)
	assert.Equal(t, "pri_1", rec.PriceID)
	assert.NotEmpty(t, rec.UpdatedAt)
}

func TestHandlePaddleWebhook_UnknownEventIsAcknowledged(t *testing.T) {
	app, store := setupWebhookTest(t)
	body := []byte(`{"event_type":"something.unknown","data":{"customer":{"email":"a@x.com"}}}`)

	resp := postWebhook(t, app, body, signWebhookBody(body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, store.Writes())
}

func TestHandlePaddleWebhook_MissingEmailSkipsWrite(t *testing.T) {
	app, store := setupWebhookTest(t)
	body := []byte(`{"event_type":"subscription.canceled","data":{"id":"sub_1"}}`)

	resp := postWebhook(t, app, body, signWebhookBody(body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, store.Writes())
}

func TestHandlePaddleWebhook_DuplicateDeliveryNotReapplied(t *testing.T) {
	app, store := setupWebhookTest(t)
	body := []byte(`{
		"event_type": "subscription.created",
		"event_id": "evt_dup",
		"data": { "id": "sub_1", "customer": { "email": "a@x.com" } }
	}`)

	resp := postWebhook(t, app, body, signWebhookBody(body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = postWebhook(t, app, body, signWebhookBody(body))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, store.Writes(), "replayed delivery must be acknowledged without reapplying")
}

func setupCheckoutTest(t *testing.T, upstream http.HandlerFunc) *fiber.App {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	paddleClient = &billing.PaddleClient{
		APIKey:     "pdl_test_key",
		APIBaseURL: srv.URL,
		SuccessURL: "http://localhost:8787/success",
		CancelURL:  "http://localhost:8787/pricing",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}

	app := fiber.New()
	app.Post("/api/checkout", HandleCreateCheckout)
	return app
}

func postCheckout(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHandleCreateCheckout(t *testing.T) {
	app := setupCheckoutTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"checkout_url":"https://checkout.paddle.com/txn_1"}}`))
	})

	resp := postCheckout(t, app, `{"priceId":"pri_1","userId":"user_42","email":"a@x.com"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"url":"https://checkout.paddle.com/txn_1"}`, string(payload))
}

func TestHandleCreateCheckout_ValidatesBody(t *testing.T) {
	app := setupCheckoutTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("provider must not be called for invalid requests")
	})

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"priceId":"pri_1"}`,
		`{"priceId":"pri_1","email":"not-an-email"}`,
	} {
		resp := postCheckout(t, app, body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestHandleCreateCheckout_ProviderFailure(t *testing.T) {
	app := setupCheckoutTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"detail":"price not found"}}`))
	})

	resp := postCheckout(t, app, `{"priceId":"pri_missing","email":"a@x.com"}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	payload, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"price not found"}`, string(payload))
}
