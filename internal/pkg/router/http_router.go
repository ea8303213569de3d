package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/unisynhq/unisyn-web/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize controllers with their collaborators
	controllers.InitializeBillingController()
	controllers.InitializeChatController()

	h.registerPublicRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Marketing pages
	app.Get("/", controllers.HandleLanding)
	app.Get("/chat", controllers.HandleChatView)
	app.Get("/pricing", controllers.HandlePricing)
	app.Get("/success", controllers.HandleCheckoutSuccess)

	app.Get("/health", controllers.HandleHealth)

	// Billing provider webhooks (signature-verified in controller)
	app.Post("/webhooks/paddle", controllers.HandlePaddleWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
