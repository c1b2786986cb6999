package recipes

import (
	"context"
	"sort"

	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/pkg/common"
	"github.com/smarthealth/storefront/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 5

	categoryWeight   = 10
	ingredientWeight = 20
)

// Candidate is a product considered for recipe matching, e.g. a cart line.
type Candidate struct {
	ID       string
	Category string
}

// ScoredRecipe is a recipe with its relevance to a candidate set.
type ScoredRecipe struct {
	domain.Recipe
	IngredientList  []string `json:"ingredients"`
	InstructionList []string `json:"instructions"`
	MatchScore      int      `json:"match_score"`
}

// Scorer ranks recipes against a set of candidate products
type Scorer struct {
	repo  RecipeRepository
	limit int
}

// NewScorer creates a scorer returning at most limit recipes.
func NewScorer(repo RecipeRepository, limit int) *Scorer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Scorer{repo: repo, limit: limit}
}

// ScoreAndRank returns the best matching recipes, highest score first, ties
// in corpus order. It never fails: store errors are logged and yield no results.
func (s *Scorer) ScoreAndRank(ctx context.Context, candidates []Candidate) []ScoredRecipe {
	if len(candidates) == 0 {
		return []ScoredRecipe{}
	}

	ids := make(map[string]struct{}, len(candidates))
	var categories []string
	seen := make(map[string]struct{})
	for _, c := range candidates {
		ids[c.ID] = struct{}{}
		if c.Category == "" {
			continue
		}
		if _, ok := seen[c.Category]; !ok {
			seen[c.Category] = struct{}{}
			categories = append(categories, c.Category)
		}
	}
	if len(categories) == 0 {
		return []ScoredRecipe{}
	}

	corpus, err := s.repo.QueryByCategories(ctx, categories)
	if err != nil {
		metrics.Incr(metrics.RecipeScoreFailure)
		zap.L().Error("query recipes failed",
			zap.String("namespace", "recipes"),
			zap.Strings("categories", categories),
			zap.Error(err),
		)
		return []ScoredRecipe{}
	}

	scored := make([]ScoredRecipe, 0, len(corpus))
	for _, rec := range corpus {
		sr := score(rec, categories, ids)
		if sr.MatchScore > 0 {
			scored = append(scored, sr)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})
	if len(scored) > s.limit {
		scored = scored[:s.limit]
	}
	metrics.Incr(metrics.RecipeRecommendation)
	return scored
}

func score(rec domain.Recipe, categories []string, ids map[string]struct{}) ScoredRecipe {
	sr := ScoredRecipe{Recipe: rec}

	tags := make(map[string]struct{})
	for _, t := range common.SplitTags(rec.Category) {
		tags[t] = struct{}{}
	}
	for _, c := range categories {
		if _, ok := tags[c]; ok {
			sr.MatchScore += categoryWeight
		}
	}

	ingredients, err := ParseList(rec.Ingredients)
	if err != nil {
		zap.L().Warn("malformed recipe ingredients",
			zap.String("namespace", "recipes"),
			zap.Int64("recipe_id", rec.ID),
			zap.Error(err),
		)
		ingredients = nil
	}
	for _, ref := range ingredients {
		if _, ok := ids[ref]; ok {
			sr.MatchScore += ingredientWeight
		}
	}
	sr.IngredientList = ingredients
	if sr.IngredientList == nil {
		sr.IngredientList = []string{}
	}

	sr.InstructionList, err = ParseList(rec.Instructions)
	if err != nil || sr.InstructionList == nil {
		sr.InstructionList = []string{}
	}
	return sr
}
