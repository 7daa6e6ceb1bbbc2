package api

import (
	"checkout-service/internal/entity"
	"checkout-service/internal/ratelimit"
	"checkout-service/internal/service"
	"context"
	"errors"
	"github.com/labstack/echo/v4"
	"net/http"
	"strconv"
)

const idempotencyHeader = "Idempotency-Key"

// CheckoutService is the registered customer surface.
type CheckoutService interface {
	SavePaymentAndPlaceOrder(ctx context.Context, req service.PaymentRequest) (entity.Outcomes, error)
	SavePaymentInformation(ctx context.Context, req service.PaymentRequest) error
	GetPaymentInformation(ctx context.Context, cartID string, customerID int64) (entity.PaymentDetails, error)
}

// GuestService is the guest surface addressed by masked cart ids.
type GuestService interface {
	SavePaymentAndPlaceOrder(ctx context.Context, req service.GuestPaymentRequest) (entity.Outcomes, error)
	SavePaymentInformation(ctx context.Context, req service.GuestPaymentRequest) error
	GetPaymentInformation(ctx context.Context, maskedCartID string) (entity.PaymentDetails, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	guest    GuestService
}

func NewCheckoutHandler(checkout CheckoutService, guest GuestService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, guest: guest}
}

type paymentInformationRequest struct {
	Email          string               `json:"email"`
	PaymentMethod  entity.PaymentMethod `json:"paymentMethod"`
	BillingAddress *entity.Address      `json:"billingAddress"`
}

type placeOrderResponse struct {
	Status   entity.OutcomeStatus `json:"status"`
	OrderIDs string               `json:"order_ids"`
	Outcomes entity.Outcomes      `json:"outcomes"`
	Error    string               `json:"error,omitempty"`
}

func (h *CheckoutHandler) paymentRequest(c echo.Context) (service.PaymentRequest, error) {
	claims, err := customerFrom(c)
	if err != nil {
		return service.PaymentRequest{}, err
	}

	body := paymentInformationRequest{}
	if err := c.Bind(&body); err != nil {
		return service.PaymentRequest{}, entity.Validationf("Invalid request payload")
	}

	return service.PaymentRequest{
		CartID:         c.Param("id"),
		CustomerID:     claims.CustomerID,
		Email:          body.Email,
		PaymentMethod:  body.PaymentMethod,
		BillingAddress: body.BillingAddress,
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	}, nil
}

func (h *CheckoutHandler) guestRequest(c echo.Context) (service.GuestPaymentRequest, error) {
	body := paymentInformationRequest{}
	if err := c.Bind(&body); err != nil {
		return service.GuestPaymentRequest{}, entity.Validationf("Invalid request payload")
	}

	return service.GuestPaymentRequest{
		MaskedCartID:   c.Param("maskedId"),
		Email:          body.Email,
		PaymentMethod:  body.PaymentMethod,
		BillingAddress: body.BillingAddress,
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	}, nil
}

// PlaceOrder saves payment information and places the order --> POST /carts/:id/payment-information
func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	req, err := h.paymentRequest(c)
	if err != nil {
		return errorJSON(c, err)
	}

	outcomes, err := h.checkout.SavePaymentAndPlaceOrder(c.Request().Context(), req)
	return outcomesJSON(c, outcomes, err)
}

// SavePaymentInformation --> POST /carts/:id/set-payment-information
func (h *CheckoutHandler) SavePaymentInformation(c echo.Context) error {
	req, err := h.paymentRequest(c)
	if err != nil {
		return errorJSON(c, err)
	}

	if err := h.checkout.SavePaymentInformation(c.Request().Context(), req); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, map[string]bool{"saved": true})
}

// GetPaymentInformation --> GET /carts/:id/payment-information
func (h *CheckoutHandler) GetPaymentInformation(c echo.Context) error {
	claims, err := customerFrom(c)
	if err != nil {
		return errorJSON(c, err)
	}

	details, err := h.checkout.GetPaymentInformation(c.Request().Context(), c.Param("id"), claims.CustomerID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, details)
}

// GuestPlaceOrder --> POST /guest-carts/:maskedId/payment-information
func (h *CheckoutHandler) GuestPlaceOrder(c echo.Context) error {
	req, err := h.guestRequest(c)
	if err != nil {
		return errorJSON(c, err)
	}

	outcomes, err := h.guest.SavePaymentAndPlaceOrder(c.Request().Context(), req)
	return outcomesJSON(c, outcomes, err)
}

// GuestSavePaymentInformation --> POST /guest-carts/:maskedId/set-payment-information
func (h *CheckoutHandler) GuestSavePaymentInformation(c echo.Context) error {
	req, err := h.guestRequest(c)
	if err != nil {
		return errorJSON(c, err)
	}

	if err := h.guest.SavePaymentInformation(c.Request().Context(), req); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, map[string]bool{"saved": true})
}

// GuestGetPaymentInformation --> GET /guest-carts/:maskedId/payment-information
func (h *CheckoutHandler) GuestGetPaymentInformation(c echo.Context) error {
	details, err := h.guest.GetPaymentInformation(c.Request().Context(), c.Param("maskedId"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, details)
}

func outcomesJSON(c echo.Context, outcomes entity.Outcomes, err error) error {
	if err != nil {
		return errorJSON(c, err)
	}

	resp := placeOrderResponse{
		Status:   outcomes.Status(),
		OrderIDs: outcomes.Joined(),
		Outcomes: outcomes,
	}
	switch resp.Status {
	case entity.StatusComplete:
		return c.JSON(200, resp)
	case entity.StatusPartial:
		return c.JSON(http.StatusMultiStatus, resp)
	default:
		first := outcomes.FirstError()
		resp.Error = safeMessage(first)
		return c.JSON(statusFor(first), resp)
	}
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(statusFor(err), map[string]string{"error": safeMessage(err)})
}

func statusFor(err error) int {
	if errors.Is(err, errUnauthorized) {
		return 401
	}
	switch entity.KindOf(err) {
	case entity.KindRateLimitExceeded:
		return 429
	case entity.KindValidation:
		return 400
	case entity.KindNotFound:
		return 404
	case entity.KindConflict:
		return 409
	case entity.KindPlacement:
		if errors.Is(err, entity.ErrValidation) || errors.Is(err, entity.ErrNotFound) {
			return 400
		}
		return 500
	default:
		return 500
	}
}

func safeMessage(err error) string {
	if errors.Is(err, errUnauthorized) {
		return unauthorizedMessage
	}
	if entity.KindOf(err) == entity.KindUnknown {
		return service.ServerErrorMessage
	}
	return entity.MessageOf(err)
}

// actor sets the rate limiting identity: the customer id when a token was
// presented, the client IP otherwise.
func actor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := "ip:" + c.RealIP()
		if claims, err := customerFrom(c); err == nil {
			id = "customer:" + strconv.FormatInt(claims.CustomerID, 10)
		}
		ctx := ratelimit.WithActor(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
