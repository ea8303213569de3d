package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/unisynhq/unisyn-web/internal/pkg/chat"
)

var chatClient *chat.Client

// InitializeChatController wires the inference API client from env.
func InitializeChatController() {
	chatClient = chat.NewClientFromEnv()
}

// HandleChatProxy forwards the prompt payload to the inference API and
// relays its JSON response verbatim.
func HandleChatProxy(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	respBody, err := chatClient.Forward(ctx, c.BodyRaw())
	if err != nil {
		log.Printf("[Chat] upstream request failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(respBody)
}
