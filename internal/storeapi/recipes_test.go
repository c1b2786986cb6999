package storeapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/smarthealth/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoredBody struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MatchScore  int      `json:"match_score"`
	Ingredients []string `json:"ingredients"`
}

func TestRecommendRecipes(t *testing.T) {
	f := newFixture(t)
	apples := testutil.CreateProduct(t, f.db, "Apel Fuji", "fruits", "12000", 10)
	milk := testutil.CreateProduct(t, f.db, "Susu UHT", "dairy", "9000", 5)
	testutil.CreateRecipe(t, f.db, 1, "Fruit salad", "fruits", fmt.Sprintf(`["%d"]`, apples.ID))
	testutil.CreateRecipe(t, f.db, 2, "Rendang", "meat", fmt.Sprintf(`["%d"]`, apples.ID))
	testutil.CreateRecipe(t, f.db, 3, "Milkshake", "dairy", fmt.Sprintf(`["%d","p9"]`, milk.ID))

	body := fmt.Sprintf(`{"product_ids":["%d","%d","424242"]}`, apples.ID, milk.ID)
	rec := f.do(http.MethodPost, "/recipes/recommendations", "", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got []scoredBody
	decode(t, rec, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, 30, got[0].MatchScore)
	assert.Equal(t, 30, got[1].MatchScore)
	assert.Equal(t, []string{idStr(milk.ID), "p9"}, got[1].Ingredients)
}

func TestRecommendRecipesEdgeCases(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/recipes/recommendations", "", "", `{"product_ids":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(http.MethodPost, "/recipes/recommendations", "", "", `{"product_ids":["424242"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(http.MethodPost, "/recipes/recommendations", "", "", `{"product_ids":["apple"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndGetRecipes(t *testing.T) {
	f := newFixture(t)
	testutil.CreateRecipe(t, f.db, 1, "Fruit salad", "fruits", `["p1"]`)
	testutil.CreateRecipe(t, f.db, 2, "Rendang", "meat", `{broken`)

	rec := f.do(http.MethodGet, "/recipes", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list pagedBody[scoredBody]
	decode(t, rec, &list)
	assert.Equal(t, int64(2), list.Total)

	rec = f.do(http.MethodGet, "/recipes/2", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one scoredBody
	decode(t, rec, &one)
	assert.Equal(t, "Rendang", one.Name)
	assert.Empty(t, one.Ingredients)

	rec = f.do(http.MethodGet, "/recipes/77", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodGet, "/recipes/abc", "", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestRecipesDisabled(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/recipes/suggestions", shopper, "", `{"products":["banana"]}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "SUGGESTIONS_DISABLED", body.Code)

	rec = f.do(http.MethodPost, "/recipes/suggestions", "", "", `{"products":["banana"]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
