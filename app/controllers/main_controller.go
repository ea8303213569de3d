package controllers

import (
	"github.com/gofiber/fiber/v2"
)

func HandleLanding(c *fiber.Ctx) error {
	return c.Render("landing", fiber.Map{})
}

func HandleChatView(c *fiber.Ctx) error {
	return c.Render("chat", fiber.Map{})
}

func HandlePricing(c *fiber.Ctx) error {
	return c.Render("pricing", fiber.Map{})
}

func HandleCheckoutSuccess(c *fiber.Ctx) error {
	return c.Render("success", fiber.Map{})
}

func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
