package storeapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/webserver"
	"github.com/smarthealth/storefront/pkg/common"
	"gorm.io/gorm"
)

type productPayload struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    *int            `json:"quantity" validate:"required,gte=0"`
	Category    string          `json:"category" validate:"max=100"`
	Image       string          `json:"image" validate:"omitempty,url"`
}

// productCSV is one row of the catalog export
type productCSV struct {
	ID       int64   `csv:"id"`
	Name     string  `csv:"name"`
	Category string  `csv:"category"`
	Price    string  `csv:"price"`
	Quantity int     `csv:"quantity"`
	Rating   float64 `csv:"rating"`
}

func registerProductRoutes() {
	webserver.PublicGET("/products", listProducts)
	webserver.PublicGET("/products/:id", getProduct)
	webserver.AdminGET("/products/export", exportProducts)
	webserver.AdminPOST("/products", createProduct)
	webserver.AdminPUT("/products/:id", updateProduct)
	webserver.AdminDELETE("/products/:id", deleteProduct)
}

// productQuery applies the list filters shared by listing and export
func productQuery(c echo.Context) *gorm.DB {
	db := GetDB(c).Model(&domain.Product{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			db = db.Where("name ILIKE ?", "%"+q+"%")
		} else {
			db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
	}
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		db = db.Where("category = ?", category)
	}
	return db
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":         "id",
		"name":       "name",
		"price":      "price",
		"rating":     "rating",
		"quantity":   "quantity",
		"created_at": "created_at",
	}
	sortCol, found := allowed[strings.TrimSpace(c.QueryParam("sort"))]
	if !found {
		sortCol = "id"
	}

	db := productQuery(c)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	err := GetDB(c).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	return ok(c, p)
}

func exportProducts(c echo.Context) error {
	var rows []domain.Product
	if err := productQuery(c).Order("id ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	out := make([]productCSV, 0, len(rows))
	for _, p := range rows {
		out = append(out, productCSV{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price.StringFixed(2),
			Quantity: p.Quantity,
			Rating:   p.Rating,
		})
	}
	body, err := gocsv.MarshalString(&out)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export products", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=products-%s.csv", time.Now().Format("20060102")))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

func bindProduct(c echo.Context) (*productPayload, error) {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return nil, err
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Category = strings.TrimSpace(payload.Category)
	payload.Image = strings.TrimSpace(payload.Image)
	if err := c.Validate(&payload); err != nil {
		return nil, err
	}
	if payload.Price.IsNegative() {
		return nil, errors.New("price must not be negative")
	}
	return &payload, nil
}

func createProduct(c echo.Context) error {
	payload, err := bindProduct(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product", err.Error())
	}

	now := time.Now()
	p := domain.Product{
		ID:          common.UUIDint64(),
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Quantity:    *payload.Quantity,
		Category:    payload.Category,
		Image:       payload.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	LogOperation(c, "create_product", fmt.Sprintf("created product %d %q", p.ID, p.Name))
	return created(c, p)
}

func updateProduct(c echo.Context) error {
	id, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	payload, err := bindProduct(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product", err.Error())
	}

	p.Name = payload.Name
	p.Description = payload.Description
	p.Price = payload.Price
	p.Quantity = *payload.Quantity
	p.Category = payload.Category
	p.Image = payload.Image
	p.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	LogOperation(c, "update_product", fmt.Sprintf("updated product %d", p.ID))
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	res := GetDB(c).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	LogOperation(c, "delete_product", fmt.Sprintf("deleted product %d", id))
	return c.NoContent(http.StatusNoContent)
}
