package storeapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/smarthealth/storefront/internal/cart"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/webserver"
	"gorm.io/gorm"
)

type cartItemPayload struct {
	ProductID int64 `json:"product_id,string" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type cartQuantityPayload struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func registerCartRoutes() {
	webserver.ApiGET("/cart", getCart)
	webserver.ApiPOST("/cart/items", addCartItem)
	webserver.ApiPUT("/cart/items/:product_id", setCartItem)
	webserver.ApiDELETE("/cart/items/:product_id", removeCartItem)
	webserver.ApiDELETE("/cart", clearCart)
}

func cartStore(c echo.Context) (*cart.Store, error) {
	s := appCtx.Cart()
	if s == nil {
		return nil, fail(c, http.StatusServiceUnavailable, "CART_UNAVAILABLE", "Cart is unavailable", nil)
	}
	return s, nil
}

func getCart(c echo.Context) error {
	s, err := cartStore(c)
	if s == nil {
		return err
	}
	lines, err := s.Lines(c.Request().Context(), webserver.UserID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to load cart", err.Error())
	}
	return ok(c, lines)
}

func addCartItem(c echo.Context) error {
	s, err := cartStore(c)
	if s == nil {
		return err
	}
	var payload cartItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart item", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "product_id and a positive quantity are required", err.Error())
	}

	var p domain.Product
	err = GetDB(c).Select("id").Where("id = ?", payload.ProductID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	qty, err := s.Add(c.Request().Context(), webserver.UserID(c), payload.ProductID, payload.Quantity)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to update cart", err.Error())
	}
	return ok(c, domain.CartLine{ProductID: payload.ProductID, Quantity: qty})
}

func setCartItem(c echo.Context) error {
	s, err := cartStore(c)
	if s == nil {
		return err
	}
	productID, valid := parseID(c, "product_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload cartQuantityPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse quantity", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Quantity must not be negative", err.Error())
	}
	if err := s.Set(c.Request().Context(), webserver.UserID(c), productID, payload.Quantity); err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to update cart", err.Error())
	}
	return getCart(c)
}

func removeCartItem(c echo.Context) error {
	s, err := cartStore(c)
	if s == nil {
		return err
	}
	productID, valid := parseID(c, "product_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := s.Remove(c.Request().Context(), webserver.UserID(c), productID); err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to update cart", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func clearCart(c echo.Context) error {
	s, err := cartStore(c)
	if s == nil {
		return err
	}
	if err := s.Clear(c.Request().Context(), webserver.UserID(c)); err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to clear cart", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
