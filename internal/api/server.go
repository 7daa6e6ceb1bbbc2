package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"time"
)

// NewServer builds the echo instance with middleware and routes.
func NewServer(handler *CheckoutHandler, jwtSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	config := middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/checkout/health"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(10),
				Burst:     30,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(config))

	// Routes
	carts := e.Group("/carts", JWT(jwtSecret), actor)
	carts.GET("/:id/payment-information", handler.GetPaymentInformation)
	carts.POST("/:id/payment-information", handler.PlaceOrder)
	carts.POST("/:id/set-payment-information", handler.SavePaymentInformation)

	guests := e.Group("/guest-carts", actor)
	guests.GET("/:maskedId/payment-information", handler.GuestGetPaymentInformation)
	guests.POST("/:maskedId/payment-information", handler.GuestPlaceOrder)
	guests.POST("/:maskedId/set-payment-information", handler.GuestSavePaymentInformation)

	e.GET("/checkout/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "checkout-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return e
}
