package recipes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	recipes []domain.Recipe
	err     error
	calls   int
	asked   []string
}

func (f *fakeRepo) QueryByCategories(_ context.Context, categories []string) ([]domain.Recipe, error) {
	f.calls++
	f.asked = categories
	if f.err != nil {
		return nil, f.err
	}
	return f.recipes, nil
}

func ids(list []ScoredRecipe) []int64 {
	out := make([]int64, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func TestScoreAndRankBasket(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateRecipe(t, db, 1, "Fruit salad", "fruits", `["p1"]`)
	testutil.CreateRecipe(t, db, 2, "Rendang", "meat", `["p1"]`)
	testutil.CreateRecipe(t, db, 3, "Milkshake", "dairy", `["p2","p9"]`)

	scorer := NewScorer(NewGormRecipeRepository(db), 0)
	got := scorer.ScoreAndRank(context.Background(), []Candidate{
		{ID: "p1", Category: "fruits"},
		{ID: "p2", Category: "dairy"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, []int64{1, 3}, ids(got))
	assert.Equal(t, 30, got[0].MatchScore)
	assert.Equal(t, 30, got[1].MatchScore)
	assert.Equal(t, []string{"p2", "p9"}, got[1].IngredientList)
	assert.Equal(t, []string{"mix"}, got[1].InstructionList)
}

func TestScoreAndRankOrdersByScore(t *testing.T) {
	repo := &fakeRepo{recipes: []domain.Recipe{
		{ID: 1, Category: "fruits", Ingredients: `[]`},
		{ID: 2, Category: "fruits,dairy", Ingredients: `["p2"]`},
		{ID: 3, Category: "dairy", Ingredients: `["p2","p2"]`},
	}}
	got := NewScorer(repo, 5).ScoreAndRank(context.Background(), []Candidate{
		{ID: "p1", Category: "fruits"},
		{ID: "p2", Category: "dairy"},
	})

	// 3: 10 + 40, 2: 20 + 20, 1: 10
	assert.Equal(t, []int64{3, 2, 1}, ids(got))
	assert.Equal(t, []int{50, 40, 10}, []int{got[0].MatchScore, got[1].MatchScore, got[2].MatchScore})
	assert.Equal(t, []string{"fruits", "dairy"}, repo.asked)
}

func TestScoreAndRankDistinctCategories(t *testing.T) {
	repo := &fakeRepo{}
	NewScorer(repo, 5).ScoreAndRank(context.Background(), []Candidate{
		{ID: "a", Category: "dairy"},
		{ID: "b", Category: "fruits"},
		{ID: "c", Category: "dairy"},
		{ID: "d"},
	})
	assert.Equal(t, []string{"dairy", "fruits"}, repo.asked)
}

func TestScoreAndRankLimit(t *testing.T) {
	var corpus []domain.Recipe
	for i := 1; i <= 8; i++ {
		corpus = append(corpus, domain.Recipe{ID: int64(i), Category: "fruits", Ingredients: `[]`})
	}
	repo := &fakeRepo{recipes: corpus}
	candidates := []Candidate{{ID: "p1", Category: "fruits"}}

	got := NewScorer(repo, 0).ScoreAndRank(context.Background(), candidates)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(got))

	got = NewScorer(repo, 2).ScoreAndRank(context.Background(), candidates)
	assert.Equal(t, []int64{1, 2}, ids(got))
}

func TestScoreAndRankDeterministic(t *testing.T) {
	var corpus []domain.Recipe
	for i := 1; i <= 20; i++ {
		corpus = append(corpus, domain.Recipe{
			ID:          int64(i),
			Category:    "fruits",
			Ingredients: fmt.Sprintf(`["p%d"]`, i%3),
		})
	}
	scorer := NewScorer(&fakeRepo{recipes: corpus}, 5)
	candidates := []Candidate{{ID: "p1", Category: "fruits"}}

	first := ids(scorer.ScoreAndRank(context.Background(), candidates))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ids(scorer.ScoreAndRank(context.Background(), candidates)))
	}
	assert.Equal(t, []int64{1, 4, 7, 10, 13}, first)
}

func TestScoreAndRankEmptyCandidates(t *testing.T) {
	repo := &fakeRepo{}
	got := NewScorer(repo, 5).ScoreAndRank(context.Background(), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, repo.calls)
}

func TestScoreAndRankRepositoryError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection reset")}
	got := NewScorer(repo, 5).ScoreAndRank(context.Background(), []Candidate{{ID: "p1", Category: "fruits"}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, repo.calls)
}

func TestScoreAndRankMalformedIngredients(t *testing.T) {
	repo := &fakeRepo{recipes: []domain.Recipe{
		{ID: 1, Category: "fruits", Ingredients: `{not json`, Instructions: `nope`},
		{ID: 2, Category: "meat", Ingredients: `["p1"`},
	}}
	got := NewScorer(repo, 5).ScoreAndRank(context.Background(), []Candidate{{ID: "p1", Category: "fruits"}})

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, 10, got[0].MatchScore)
	assert.Empty(t, got[0].IngredientList)
	assert.Empty(t, got[0].InstructionList)
}

func TestQueryByCategoriesMatchesWholeTags(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateRecipe(t, db, 10, "Yoghurt bowl", "fruits,dairy", `[]`)
	testutil.CreateRecipe(t, db, 11, "Vegan latte", "dairy-free", `[]`)
	testutil.CreateRecipe(t, db, 12, "Cheese plate", "snacks, dairy", `[]`)
	testutil.CreateRecipe(t, db, 13, "Steak", "meat", `[]`)

	repo := NewGormRecipeRepository(db)
	got, err := repo.QueryByCategories(context.Background(), []string{"dairy"})
	require.NoError(t, err)

	var found []int64
	for _, r := range got {
		found = append(found, r.ID)
	}
	assert.Equal(t, []int64{10, 12}, found)

	got, err = repo.QueryByCategories(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGormRecipeListAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateRecipe(t, db, 1, "Fruit salad", "fruits", `["p1"]`)
	testutil.CreateRecipe(t, db, 2, "Rendang", "meat", `[]`)
	testutil.CreateRecipe(t, db, 3, "Smoothie", "fruits,dairy", `[]`)
	repo := NewGormRecipeRepository(db)

	rows, total, err := repo.List(context.Background(), "fruits", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ID)

	rec, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Rendang", rec.Name)

	_, err = repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}
