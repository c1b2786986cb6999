package app

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smarthealth/storefront/config"
	"github.com/smarthealth/storefront/internal/checkout"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/recipes"
	"github.com/smarthealth/storefront/internal/testutil"
	"github.com/smarthealth/storefront/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	a := NewApplication(config.DefaultAppConfig())
	a.OverrideDB(testutil.NewDB(t))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a.OverrideRedis(client)
	a.InitServices()
	t.Cleanup(func() {
		a.pool.Release()
		_ = client.Close()
	})
	return a
}

func TestInitServices(t *testing.T) {
	a := newTestApp(t)
	assert.NotNil(t, a.Cart())
	assert.NotNil(t, a.Checkout())
	assert.NotNil(t, a.Scorer())
	assert.NotNil(t, a.Bus())
	assert.False(t, a.Suggester().Enabled())
}

func TestSeedDataIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	a.checkProducts()
	a.checkRecipes()
	a.checkProducts()
	a.checkRecipes()

	var products, recipesCount int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&products).Error)
	require.NoError(t, a.DB().Model(&domain.Recipe{}).Count(&recipesCount).Error)
	assert.Equal(t, int64(8), products)
	assert.Equal(t, int64(4), recipesCount)

	// seeded recipes reference seeded products by id
	var banana domain.Product
	require.NoError(t, a.DB().Where("name = ?", "Pisang Cavendish 1 sisir").First(&banana).Error)
	got := a.Scorer().ScoreAndRank(context.Background(), []recipes.Candidate{
		{ID: strconv.FormatInt(banana.ID, 10), Category: banana.Category},
	})
	require.NotEmpty(t, got)
	assert.Equal(t, "Smoothie Pisang Yoghurt", got[0].Name)
	assert.Equal(t, 30, got[0].MatchScore)
}

func TestOrderPlacedCreatesNotification(t *testing.T) {
	a := newTestApp(t)
	db := a.DB()
	p := testutil.CreateProduct(t, db, "Apel Fuji", "fruits", "25000", 10)
	addr := testutil.CreateAddress(t, db, "user-1", "Jl. Merdeka 10")

	res, err := a.Checkout().Checkout(context.Background(), checkout.Request{
		UserID:    "user-1",
		AddressID: addr.ID,
		Lines:     []domain.CartLine{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		var n domain.Notification
		if err := db.Where("user_id = ?", "user-1").First(&n).Error; err != nil {
			return false
		}
		return n.Kind == NotificationKindOrder && n.Title == "Order placed"
	}, 2*time.Second, 10*time.Millisecond)

	var n domain.Notification
	require.NoError(t, db.Where("user_id = ?", "user-1").First(&n).Error)
	assert.Contains(t, n.Body, "2 item(s)")
	assert.Contains(t, n.Body, "50000.00")
	assert.Contains(t, n.Body, "5 loyalty point(s)")
	assert.Contains(t, n.Body, strconv.FormatInt(res.CheckoutID, 10))
}

func TestSchedLowStockReport(t *testing.T) {
	require.NoError(t, metrics.InitMetrics(""))
	t.Cleanup(func() { _ = metrics.Close() })

	a := newTestApp(t)
	testutil.CreateProduct(t, a.DB(), "Telur 10 butir", "dairy", "25000", 2)
	testutil.CreateProduct(t, a.DB(), "Keju Cheddar", "dairy", "40000", 5)
	testutil.CreateProduct(t, a.DB(), "Beras 5kg", "grains", "75000", 50)

	since := time.Now().Add(-time.Minute)
	a.SchedLowStockReport()

	v, ok := metrics.Last(metrics.LowStockProducts, since)
	require.True(t, ok)
	assert.Equal(t, float64(2), v)
}

func TestSchedClearExpireData(t *testing.T) {
	a := newTestApp(t)
	db := a.DB()
	old := time.Now().Add(-100 * 24 * time.Hour)

	rows := []domain.Notification{
		{ID: 1, UserID: "u", Read: true, CreatedAt: old},
		{ID: 2, UserID: "u", Read: false, CreatedAt: old},
		{ID: 3, UserID: "u", Read: true, CreatedAt: time.Now()},
	}
	require.NoError(t, db.Create(&rows).Error)
	require.NoError(t, db.Create(&domain.SysOprLog{ID: 9, OprName: "ops", OptTime: time.Now().Add(-400 * 24 * time.Hour)}).Error)

	a.SchedClearExpireData()

	var left []domain.Notification
	require.NoError(t, db.Order("id").Find(&left).Error)
	require.Len(t, left, 2)
	assert.Equal(t, int64(2), left[0].ID)
	assert.Equal(t, int64(3), left[1].ID)

	var logs int64
	require.NoError(t, db.Model(&domain.SysOprLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}
