package checkout

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/pkg/common"
	"github.com/smarthealth/storefront/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TopicOrderPlaced is published with a *Result after every successful checkout.
const TopicOrderPlaced = "order.placed"

// Points accrual modes.
const (
	PointsRatio = "ratio"
	PointsFlat  = "flat"
)

// Publisher is satisfied by an EventBus.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

type Options struct {
	StockPolicy   StockPolicy
	PointsMode    string
	PointsDivisor int64
	PointsFlat    int64
	// MaxLines bounds a single checkout; zero means unbounded.
	MaxLines int
}

// Request is an unvalidated cart submitted for checkout. UserID must come
// from the verified session, never from the request body.
type Request struct {
	UserID    string
	AddressID int64
	Lines     []domain.CartLine
}

// LineResult describes one persisted order line.
type LineResult struct {
	OrderLineID int64           `json:"order_line_id,string"`
	ProductID   int64           `json:"product_id,string"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Result struct {
	CheckoutID  int64           `json:"checkout_id,string"`
	UserID      string          `json:"user_id"`
	AddressID   int64           `json:"address_id,string"`
	Total       decimal.Decimal `json:"total"`
	PointsAdded int64           `json:"points_added"`
	Lines       []LineResult    `json:"lines"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderLineIDs returns the ids of the persisted order lines.
func (r *Result) OrderLineIDs() []int64 {
	ids := make([]int64, 0, len(r.Lines))
	for _, l := range r.Lines {
		ids = append(ids, l.OrderLineID)
	}
	return ids
}

// Service converts carts into persisted order lines
type Service struct {
	store Store
	opts  Options
	bus   Publisher
}

// NewService creates a checkout service. bus may be nil.
func NewService(store Store, opts Options, bus Publisher) *Service {
	if opts.StockPolicy == "" {
		opts.StockPolicy = StockReject
	}
	if opts.PointsMode == "" {
		opts.PointsMode = PointsRatio
	}
	if opts.PointsDivisor <= 0 {
		opts.PointsDivisor = 10000
	}
	return &Service{store: store, opts: opts, bus: bus}
}

// line is a validated cart line with its position in the request.
type line struct {
	index   int
	product *domain.Product
	domain.CartLine
}

// Checkout validates the cart, decrements stock, records order lines and
// accrues points in one transaction. Any failing line aborts the whole checkout.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	lines, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if err := s.checkAddress(ctx, req.UserID, req.AddressID); err != nil {
		return nil, err
	}

	if err := s.loadProducts(ctx, lines); err != nil {
		s.recordFailure(req, err)
		return nil, err
	}

	result := &Result{
		CheckoutID: common.UUIDint64(),
		UserID:     req.UserID,
		AddressID:  req.AddressID,
		Total:      decimal.Zero,
		CreatedAt:  time.Now(),
	}
	for _, l := range lines {
		subtotal := l.product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		result.Total = result.Total.Add(subtotal)
		result.Lines = append(result.Lines, LineResult{
			OrderLineID: common.UUIDint64(),
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.product.Price,
			Subtotal:    subtotal,
		})
	}
	result.PointsAdded = s.pointsFor(result.Total)

	err = s.store.Transaction(ctx, func(tx Store) error {
		return s.commit(ctx, tx, lines, result)
	})
	if err != nil {
		s.recordFailure(req, err)
		return nil, err
	}

	metrics.Incr(metrics.CheckoutSuccess)
	zap.L().Info("checkout completed",
		zap.String("namespace", "checkout"),
		zap.String("user_id", req.UserID),
		zap.Int64("checkout_id", result.CheckoutID),
		zap.Int("lines", len(result.Lines)),
		zap.String("total", result.Total.String()),
		zap.Int64("points", result.PointsAdded),
	)
	if s.bus != nil {
		s.bus.Publish(TopicOrderPlaced, result)
	}
	return result, nil
}

func (s *Service) validate(req Request) ([]*line, error) {
	if req.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if req.AddressID == 0 {
		return nil, ErrMissingAddress
	}

	// merge repeated products, keeping first-seen order
	var lines []*line
	byProduct := make(map[int64]*line)
	for i, cl := range req.Lines {
		if cl.Quantity <= 0 {
			return nil, &LineError{Index: i, ProductID: cl.ProductID, Err: ErrInvalidQuantity}
		}
		if l, ok := byProduct[cl.ProductID]; ok {
			l.Quantity += cl.Quantity
			continue
		}
		l := &line{index: i, CartLine: cl}
		byProduct[cl.ProductID] = l
		lines = append(lines, l)
	}
	if s.opts.MaxLines > 0 && len(lines) > s.opts.MaxLines {
		return nil, ErrTooManyLines
	}
	return lines, nil
}

func (s *Service) checkAddress(ctx context.Context, userID string, addressID int64) error {
	addrs, err := s.store.Addresses().ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		if a.ID == addressID {
			return nil
		}
	}
	return ErrAddressNotOwned
}

// loadProducts fetches every line's product concurrently.
func (s *Service) loadProducts(ctx context.Context, lines []*line) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, l := range lines {
		l := l
		g.Go(func() error {
			p, err := s.store.Catalog().GetProduct(gctx, l.ProductID)
			if err != nil {
				return &LineError{Index: l.index, ProductID: l.ProductID, Err: err}
			}
			if s.opts.StockPolicy == StockReject && p.Quantity < l.Quantity {
				return &LineError{Index: l.index, ProductID: l.ProductID, Err: &StockUnavailableError{
					ProductID: l.ProductID, Requested: l.Quantity, Available: p.Quantity,
				}}
			}
			l.product = p
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) commit(ctx context.Context, tx Store, lines []*line, result *Result) error {
	orderLines := make(map[int64]LineResult, len(result.Lines))
	for _, lr := range result.Lines {
		orderLines[lr.ProductID] = lr
	}

	// fixed product order avoids lock-order deadlocks between concurrent checkouts
	ordered := make([]*line, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	for _, l := range ordered {
		if err := tx.Catalog().DecrementStock(ctx, l.ProductID, l.Quantity, s.opts.StockPolicy); err != nil {
			return &LineError{Index: l.index, ProductID: l.ProductID, Err: err}
		}
		lr := orderLines[l.ProductID]
		err := tx.Orders().InsertOrderLine(ctx, &domain.OrderLine{
			ID:         lr.OrderLineID,
			CheckoutID: result.CheckoutID,
			UserID:     result.UserID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			UnitPrice:  lr.UnitPrice,
			AddressID:  result.AddressID,
			CreatedAt:  result.CreatedAt,
		})
		if err != nil {
			return &LineError{Index: l.index, ProductID: l.ProductID, Err: err}
		}
	}

	if result.PointsAdded > 0 {
		return tx.Points().AddPoints(ctx, result.UserID, result.PointsAdded)
	}
	return nil
}

func (s *Service) pointsFor(total decimal.Decimal) int64 {
	if s.opts.PointsMode == PointsFlat {
		return s.opts.PointsFlat
	}
	return total.Div(decimal.NewFromInt(s.opts.PointsDivisor)).Floor().IntPart()
}

func (s *Service) recordFailure(req Request, err error) {
	metrics.Incr(metrics.CheckoutFailure)
	var stockErr *StockUnavailableError
	if errors.As(err, &stockErr) {
		metrics.Incr(metrics.CheckoutStockReject)
	}
	zap.L().Warn("checkout failed",
		zap.String("namespace", "checkout"),
		zap.String("user_id", req.UserID),
		zap.Int("lines", len(req.Lines)),
		zap.Error(err),
	)
}
