package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/unisynhq/unisyn-web/app/models"
	"github.com/unisynhq/unisyn-web/internal/pkg/billing"
	"github.com/unisynhq/unisyn-web/internal/pkg/cache"
	"github.com/unisynhq/unisyn-web/internal/pkg/database"
	"github.com/unisynhq/unisyn-web/internal/pkg/env"
	"github.com/unisynhq/unisyn-web/internal/pkg/userstore"
)

var (
	billingService *billing.Service
	paddleClient   *billing.PaddleClient
	userStore      userstore.Store

	validate = validator.New()
)

// InitializeBillingController wires the billing dependencies from env and
// the shared DB handle. Called once from the router during startup.
func InitializeBillingController() {
	billingService = billing.NewServiceFromDB(database.GetDB())
	paddleClient = billing.NewPaddleClientFromEnv()
	userStore = newUserStoreFromEnv()
}

func newUserStoreFromEnv() userstore.Store {
	switch strings.ToLower(env.GetEnv("USER_STORE", "dynamo")) {
	case "redis":
		return userstore.NewRedisStore(cache.GetClient())
	case "memory":
		return userstore.NewMemoryStore()
	default:
		store, err := userstore.NewDynamoStoreFromEnv(context.Background())
		if err != nil {
			log.Printf("Warning: DynamoDB user store unavailable, falling back to memory store: %v", err)
			return userstore.NewMemoryStore()
		}
		return store
	}
}

type checkoutRequest struct {
	PriceID string `json:"priceId" validate:"required"`
	UserID  string `json:"userId"`
	Email   string `json:"email" validate:"required,email"`
}

// HandleCreateCheckout creates a Paddle checkout session for one line item
// and returns the hosted checkout URL.
func HandleCreateCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	url, err := paddleClient.CreateTransaction(ctx, req.PriceID, req.UserID, req.Email)
	if err != nil {
		log.Printf("[Paddle] checkout creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
}

// HandlePaddleWebhook receives Paddle webhook deliveries. The signature is
// checked against the raw body before anything else happens; only verified
// payloads are parsed and applied to the user store.
func HandlePaddleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Paddle-Signature"))
	secret := env.GetEnv("PADDLE_WEBHOOK_SECRET", "")

	if !billing.VerifyPaddleWebhookSignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid signature")
	}

	event, err := billing.ParsePaddleEvent(rawBody)
	if err != nil {
		log.Printf("[Paddle Webhook] unreadable payload: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Event log with dedupe: replayed deliveries are acknowledged without
	// being applied a second time.
	var storedID uint
	if billingService != nil {
		created, stored, err := billingService.RecordWebhookEvent(ctx, billing.WebhookEventInput{
			Provider:        models.BillingProviderPaddle,
			ProviderEventID: event.EventID,
			EventType:       event.EventType,
			PayloadJSON:     string(rawBody),
			SignatureValid:  true,
		})
		if err != nil {
			log.Printf("[Paddle Webhook] event persist failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("server error")
		}
		if !created {
			return c.Status(fiber.StatusOK).SendString("ok")
		}
		storedID = stored.ID
	}

	applyErr := billing.ApplyPaddleEvent(ctx, userStore, event)
	if billingService != nil {
		_ = billingService.MarkWebhookProcessed(ctx, storedID, applyErr)
	}
	if applyErr != nil {
		log.Printf("[Paddle Webhook] apply %s failed: %v", event.EventType, applyErr)
		return c.Status(fiber.StatusInternalServerError).SendString("server error")
	}

	return c.Status(fiber.StatusOK).SendString("ok")
}
