package storeapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/smarthealth/storefront/internal/checkout"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/webserver"
	"go.uber.org/zap"
)

type checkoutPayload struct {
	AddressID int64             `json:"address_id,string"`
	Items     []domain.CartLine `json:"items"`
}

type checkoutErrorResponse struct {
	webserver.ErrorResponse
	ProductID string `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func registerCheckoutRoutes() {
	webserver.ApiPOST("/checkout", placeOrder)
}

func placeOrder(c echo.Context) error {
	userID := webserver.UserID(c)
	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout request", err.Error())
	}

	lines := payload.Items
	fromCart := len(lines) == 0
	if fromCart {
		cartStore := appCtx.Cart()
		if cartStore == nil {
			return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", checkout.ErrEmptyCart.Error(), nil)
		}
		var err error
		lines, err = cartStore.Lines(c.Request().Context(), userID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to load cart", err.Error())
		}
	}

	res, err := appCtx.Checkout().Checkout(c.Request().Context(), checkout.Request{
		UserID:    userID,
		AddressID: payload.AddressID,
		Lines:     lines,
	})
	if err != nil {
		return checkoutFailed(c, err)
	}

	if fromCart {
		if err := appCtx.Cart().Clear(c.Request().Context(), userID); err != nil {
			zap.L().Warn("clear cart after checkout failed",
				zap.String("namespace", "storeapi"),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return created(c, res)
}

func checkoutFailed(c echo.Context, err error) error {
	status, code := http.StatusInternalServerError, "DATA_ACCESS_ERROR"
	msg := "Checkout failed"
	body := checkoutErrorResponse{}

	var lineErr *checkout.LineError
	if errors.As(err, &lineErr) {
		body.ProductID = strconv.FormatInt(lineErr.ProductID, 10)
	}
	var stockErr *checkout.StockUnavailableError

	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		status, code, msg = http.StatusUnauthorized, "UNAUTHENTICATED", err.Error()
	case checkout.IsValidation(err):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
		msg = validationMessage(err)
	case errors.Is(err, checkout.ErrAddressNotOwned):
		status, code, msg = http.StatusNotFound, "ADDRESS_NOT_FOUND", checkout.ErrAddressNotOwned.Error()
	case errors.Is(err, checkout.ErrProductNotFound):
		status, code, msg = http.StatusNotFound, "PRODUCT_NOT_FOUND", checkout.ErrProductNotFound.Error()
	case errors.As(err, &stockErr):
		status, code, msg = http.StatusConflict, "STOCK_UNAVAILABLE", "Insufficient stock"
		body.ProductID = strconv.FormatInt(stockErr.ProductID, 10)
		body.Requested = stockErr.Requested
		available := stockErr.Available
		body.Available = &available
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("checkout failed",
			zap.String("namespace", "storeapi"),
			zap.String("user_id", webserver.UserID(c)),
			zap.Error(err),
		)
	}
	body.ErrorResponse = webserver.ErrorResponse{Error: msg, Code: code}
	return c.JSON(status, body)
}

func validationMessage(err error) string {
	for _, target := range []error{checkout.ErrEmptyCart, checkout.ErrInvalidQuantity, checkout.ErrTooManyLines, checkout.ErrMissingAddress} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "invalid checkout request"
}
