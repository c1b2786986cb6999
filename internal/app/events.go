package app

import (
	"fmt"
	"time"

	"github.com/smarthealth/storefront/internal/checkout"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/pkg/common"
	"go.uber.org/zap"
)

// TopicReviewCreated is published with a *domain.Review after a review is stored.
const TopicReviewCreated = "review.created"

const NotificationKindOrder = "order"

func (a *Application) subscribeEvents() {
	err := a.bus.Subscribe(checkout.TopicOrderPlaced, func(res *checkout.Result) {
		a.dispatch(checkout.TopicOrderPlaced, func() { a.notifyOrderPlaced(res) })
	})
	if err != nil {
		zap.S().Errorf("subscribe %s: %v", checkout.TopicOrderPlaced, err)
	}

	err = a.bus.Subscribe(TopicReviewCreated, func(r *domain.Review) {
		a.dispatch(TopicReviewCreated, func() {
			zap.L().Info("review created",
				zap.String("namespace", "events"),
				zap.Int64("product_id", r.ProductID),
				zap.String("user_id", r.UserID),
				zap.Int("rating", r.Rating),
			)
		})
	})
	if err != nil {
		zap.S().Errorf("subscribe %s: %v", TopicReviewCreated, err)
	}
}

// dispatch hands fn to the worker pool so publishers never wait on subscribers.
func (a *Application) dispatch(topic string, fn func()) {
	if err := a.pool.Submit(fn); err != nil {
		zap.L().Error("event dropped",
			zap.String("namespace", "events"),
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}

func (a *Application) notifyOrderPlaced(res *checkout.Result) {
	items := 0
	for _, l := range res.Lines {
		items += l.Quantity
	}
	body := fmt.Sprintf("Order %d: %d item(s), total %s.", res.CheckoutID, items, res.Total.StringFixed(2))
	if res.PointsAdded > 0 {
		body += fmt.Sprintf(" You earned %d loyalty point(s).", res.PointsAdded)
	}

	n := domain.Notification{
		ID:        common.UUIDint64(),
		UserID:    res.UserID,
		Kind:      NotificationKindOrder,
		Title:     "Order placed",
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := a.gormDB.Create(&n).Error; err != nil {
		zap.L().Error("create order notification failed",
			zap.String("namespace", "events"),
			zap.Int64("checkout_id", res.CheckoutID),
			zap.Error(err),
		)
	}
}
