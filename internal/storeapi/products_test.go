package storeapi

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operator = "ops-1"

func TestListProducts(t *testing.T) {
	f := newFixture(t)
	testutil.CreateProduct(t, f.db, "Apel Fuji", "fruits", "42000", 10)
	testutil.CreateProduct(t, f.db, "Apel Hijau", "fruits", "38000", 10)
	testutil.CreateProduct(t, f.db, "Susu UHT", "dairy", "19500", 10)

	rec := f.do(http.MethodGet, "/products?q=apel&sort=price&order=asc", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list pagedBody[domain.Product]
	decode(t, rec, &list)
	require.Equal(t, int64(2), list.Total)
	assert.Equal(t, "Apel Hijau", list.Data[0].Name)

	rec = f.do(http.MethodGet, "/products?category=dairy&pageSize=1", "", "", "")
	decode(t, rec, &list)
	assert.Equal(t, int64(1), list.Total)

	// unknown sort columns fall back to id
	rec = f.do(http.MethodGet, "/products?sort=password;drop", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductAdminLifecycle(t *testing.T) {
	f := newFixture(t)
	payload := `{"name":"Alpukat Mentega","price":"35000.50","quantity":12,"category":"fruits"}`

	rec := f.do(http.MethodPost, "/products", shopper, "customer", payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodPost, "/products", "", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/products", operator, "admin", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p domain.Product
	decode(t, rec, &p)
	assert.Equal(t, "Alpukat Mentega", p.Name)
	assert.Equal(t, "35000.5", p.Price.String())
	assert.Equal(t, 12, p.Quantity)

	rec = f.do(http.MethodGet, "/products/"+idStr(p.ID), "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPut, "/products/"+idStr(p.ID), operator, "admin",
		`{"name":"Alpukat Mentega","price":"30000","quantity":4,"category":"fruits"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &p)
	assert.Equal(t, 4, p.Quantity)

	rec = f.do(http.MethodGet, "/products/export", operator, "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id,name,category,price,quantity,rating"))
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("%d,Alpukat Mentega,fruits,30000.00,4,0", p.ID))

	rec = f.do(http.MethodDelete, "/products/"+idStr(p.ID), operator, "admin", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(http.MethodDelete, "/products/"+idStr(p.ID), operator, "admin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodGet, "/products/"+idStr(p.ID), "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var logs []domain.SysOprLog
	require.NoError(t, f.db.Order("opt_time ASC").Find(&logs).Error)
	require.Len(t, logs, 3)
	assert.Equal(t, "create_product", logs[0].OptAction)
	assert.Equal(t, operator, logs[0].OprName)
	assert.Equal(t, "delete_product", logs[2].OptAction)
}

func TestProductValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name    string
		payload string
	}{
		{"missing name", `{"price":"1","quantity":1}`},
		{"missing quantity", `{"name":"x","price":"1"}`},
		{"negative quantity", `{"name":"x","price":"1","quantity":-1}`},
		{"negative price", `{"name":"x","price":"-1","quantity":1}`},
		{"bad image", `{"name":"x","price":"1","quantity":1,"image":"not a url"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/products", operator, "admin", tt.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestReviewsRecomputeRating(t *testing.T) {
	f := newFixture(t)
	p := testutil.CreateProduct(t, f.db, "Madu Hutan", "pantry", "85000", 10)
	path := "/products/" + idStr(p.ID) + "/reviews"

	type reviewResp struct {
		ProductRating float64 `json:"product_rating"`
	}
	var resp reviewResp
	for _, rating := range []int{5, 4, 4} {
		rec := f.do(http.MethodPost, path, shopper, "", fmt.Sprintf(`{"rating":%d,"comment":"enak"}`, rating))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &resp)
	}
	assert.Equal(t, 4.3, resp.ProductRating)

	var stored domain.Product
	require.NoError(t, f.db.First(&stored, p.ID).Error)
	assert.Equal(t, 4.3, stored.Rating)

	rec := f.do(http.MethodGet, path, "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list pagedBody[domain.Review]
	decode(t, rec, &list)
	assert.Equal(t, int64(3), list.Total)

	rec = f.do(http.MethodPost, path, shopper, "", `{"rating":6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodPost, path, shopper, "", `{"rating":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodPost, "/products/424242/reviews", shopper, "", `{"rating":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodPost, path, "", "", `{"rating":3}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var count int64
	require.NoError(t, f.db.Model(&domain.Review{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
