package storeapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/recipes"
	"github.com/smarthealth/storefront/internal/webserver"
	"github.com/spf13/cast"
)

type recommendPayload struct {
	ProductIDs []string `json:"product_ids"`
}

type suggestPayload struct {
	Products []string `json:"products" validate:"required,min=1,max=10,dive,required"`
}

// recipeView is a stored recipe with its JSON columns decoded
type recipeView struct {
	domain.Recipe
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

func registerRecipeRoutes() {
	webserver.PublicPOST("/recipes/recommendations", recommendRecipes)
	webserver.PublicGET("/recipes", listRecipes)
	webserver.PublicGET("/recipes/:id", getRecipe)
	webserver.ApiPOST("/recipes/suggestions", suggestRecipes)
}

// recommendRecipes ranks recipes against the given products. Unknown ids
// are ignored; the result is always a JSON array.
func recommendRecipes(c echo.Context) error {
	var payload recommendPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}

	var ids []int64
	for _, raw := range payload.ProductIDs {
		id, err := cast.ToInt64E(strings.TrimSpace(raw))
		if err != nil || id <= 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "product_ids must be numeric ids", raw)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ok(c, []recipes.ScoredRecipe{})
	}

	var products []domain.Product
	if err := GetDB(c).Select("id", "category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// candidates follow request order so category order is first-seen
	candidates := make([]recipes.Candidate, 0, len(ids))
	for _, id := range ids {
		p, found := byID[id]
		if !found {
			continue
		}
		candidates = append(candidates, recipes.Candidate{ID: cast.ToString(p.ID), Category: p.Category})
	}
	return ok(c, appCtx.Scorer().ScoreAndRank(c.Request().Context(), candidates))
}

func listRecipes(c echo.Context) error {
	page, pageSize := parsePagination(c)
	repo := recipes.NewGormRecipeRepository(appCtx.DB())
	rows, total, err := repo.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("category")), page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query recipes", err.Error())
	}
	views := make([]recipeView, 0, len(rows))
	for _, r := range rows {
		views = append(views, toRecipeView(r))
	}
	return paged(c, views, total, page, pageSize)
}

func getRecipe(c echo.Context) error {
	id, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid recipe ID", nil)
	}
	rec, err := recipes.NewGormRecipeRepository(appCtx.DB()).GetByID(c.Request().Context(), id)
	if errors.Is(err, recipes.ErrRecipeNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Recipe not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query recipe", err.Error())
	}
	return ok(c, toRecipeView(*rec))
}

func toRecipeView(r domain.Recipe) recipeView {
	v := recipeView{Recipe: r, Ingredients: []string{}, Instructions: []string{}}
	if list, err := recipes.ParseList(r.Ingredients); err == nil && list != nil {
		v.Ingredients = list
	}
	if list, err := recipes.ParseList(r.Instructions); err == nil && list != nil {
		v.Instructions = list
	}
	return v
}

func suggestRecipes(c echo.Context) error {
	suggester := appCtx.Suggester()
	if !suggester.Enabled() {
		return fail(c, http.StatusServiceUnavailable, "SUGGESTIONS_DISABLED", recipes.ErrSuggestionsDisabled.Error(), nil)
	}

	var payload suggestPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "products must list 1 to 10 names", err.Error())
	}

	list, err := suggester.Suggest(c.Request().Context(), payload.Products)
	switch {
	case errors.Is(err, recipes.ErrNoProducts):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, recipes.ErrInvalidSuggestion):
		return fail(c, http.StatusBadGateway, "INVALID_MODEL_OUTPUT", "Recipe suggestions were not usable", err.Error())
	case err != nil:
		return fail(c, http.StatusBadGateway, "SUGGESTION_FAILED", "Recipe suggestions are unavailable", err.Error())
	}
	return ok(c, list)
}
