package metrics

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

// Metric names used across the service.
const (
	CheckoutSuccess      = "storefront_checkout_success"
	CheckoutFailure      = "storefront_checkout_failure"
	CheckoutStockReject  = "storefront_checkout_stock_reject"
	RecipeRecommendation = "storefront_recipe_recommendation"
	RecipeScoreFailure   = "storefront_recipe_score_failure"
	LowStockProducts     = "storefront_low_stock_products"
	ProcessCPU           = "storefront_cpuuse"
	ProcessMem           = "storefront_memuse"
)

var (
	mu      sync.RWMutex
	storage tstorage.Storage

	tsMu   sync.Mutex
	lastTS int64
)

// nextTimestamp keeps points strictly increasing so none land in the
// out-of-order buffer of the in-memory partition.
func nextTimestamp() int64 {
	tsMu.Lock()
	defer tsMu.Unlock()
	ts := time.Now().UnixNano()
	if ts <= lastTS {
		ts = lastTS + 1
	}
	lastTS = ts
	return ts
}

// InitMetrics opens the time-series store under workdir/data/metrics.
// An empty workdir keeps the series in memory only.
func InitMetrics(workdir string) error {
	opts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Nanoseconds),
		tstorage.WithRetention(30 * 24 * time.Hour),
	}
	if workdir != "" {
		opts = append(opts, tstorage.WithDataPath(filepath.Join(workdir, "data", "metrics")))
	}
	s, err := tstorage.NewStorage(opts...)
	if err != nil {
		return err
	}
	mu.Lock()
	old := storage
	storage = s
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func insert(name string, value float64) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{{
		Metric:    name,
		DataPoint: tstorage.DataPoint{Timestamp: nextTimestamp(), Value: value},
	}})
}

// Incr records one occurrence of an event.
func Incr(name string) {
	insert(name, 1)
}

// SetGauge records the current value of a gauge.
func SetGauge(name string, value int64) {
	insert(name, float64(value))
}

// Sum adds every point of name recorded since the given time.
func Sum(name string, since time.Time) (float64, error) {
	points, err := sel(name, since)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range points {
		total += p.Value
	}
	return total, nil
}

// Last returns the most recent value of name.
func Last(name string, since time.Time) (float64, bool) {
	points, err := sel(name, since)
	if err != nil || len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Value, true
}

func sel(name string, since time.Time) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return nil, nil
	}
	points, err := storage.Select(name, nil, since.UnixNano(), nextTimestamp()+1)
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return nil, nil
	}
	return points, err
}

// Close flushes and releases the store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
