package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/db"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/events"
	"github.com/noah-isme/backend-candy/internal/obs"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Queries is the subset of generated queries used by orders.
type Queries interface {
	CountOrders(ctx context.Context, status pgtype.Text) (int64, error)
	CreateOrder(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error)
	DeleteOrder(ctx context.Context, id pgtype.UUID) (int64, error)
	GetOrder(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	GetOrderForUpdate(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	ListOrders(ctx context.Context, arg dbgen.ListOrdersParams) ([]dbgen.Order, error)
	UpdateOrder(ctx context.Context, arg dbgen.UpdateOrderParams) (dbgen.Order, error)
	UpdateOrderStatus(ctx context.Context, arg dbgen.UpdateOrderStatusParams) (dbgen.Order, error)
}

// Emitter publishes domain events. *events.Bus satisfies it.
type Emitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (dbgen.DomainEvent, error)
}

// Service places and administers orders. Line pricing is always snapshotted
// from the catalog; totals in requests are never trusted.
type Service struct {
	queries Queries
	pool    db.TxBeginner
	lookup  pricing.CatalogLookup
	events  Emitter
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries Queries
	Pool    db.TxBeginner
	Lookup  pricing.CatalogLookup
	Events  Emitter
	Logger  *zerolog.Logger
}

// ListResult contains a page of orders.
type ListResult struct {
	Items []Order
	Total int64
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("order: queries provider is required")
	}
	if cfg.Lookup == nil {
		return nil, errors.New("order: catalog lookup is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "order").Logger()
	}
	return &Service{
		queries: cfg.Queries,
		pool:    cfg.Pool,
		lookup:  cfg.Lookup,
		events:  cfg.Events,
		logger:  logger,
	}, nil
}

// Create snapshots the requested lines and stores a new order.
func (s *Service) Create(ctx context.Context, in Input) (Order, error) {
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	in.Customer.Phone = strings.TrimSpace(in.Customer.Phone)
	in.Customer.Email = trimmedPtr(in.Customer.Email)
	in.Comment = trimmedPtr(in.Comment)
	if err := common.ValidateStruct(in); err != nil {
		return Order{}, err
	}

	snap, err := pricing.BuildOrderSnapshot(ctx, in.Candies, in.Packs, s.lookup)
	if err != nil {
		return Order{}, lookupError(err)
	}
	s.logDropped(ctx, "", snap.Dropped)

	candyJSON, packJSON, err := encodeLines(snap.CandyLines, snap.PackagingLines)
	if err != nil {
		return Order{}, err
	}
	row, err := s.queries.CreateOrder(ctx, dbgen.CreateOrderParams{
		Status:            string(StatusNew),
		CustomerName:      in.Customer.Name,
		CustomerPhone:     in.Customer.Phone,
		CustomerEmail:     common.Text(textOf(in.Customer.Email)),
		Comment:           common.Text(textOf(in.Comment)),
		CandyLines:        candyJSON,
		PackagingLines:    packJSON,
		TotalRevenueMinor: snap.Totals.RevenueMinor,
		TotalCostMinor:    snap.Totals.CostMinor,
		ProfitMinor:       snap.Totals.ProfitMinor,
		TotalWeightGrams:  snap.Totals.WeightGrams,
		PackagingCount:    snap.Totals.PackagingCount,
	})
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	out, err := toDTO(row)
	if err != nil {
		return Order{}, err
	}
	obs.RecordOrder("create", out.Totals.RevenueMinor)
	s.emit(ctx, events.TopicOrderCreated, row.ID, out, "", len(snap.Dropped))
	return out, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	uid, err := parseID(id)
	if err != nil {
		return Order{}, err
	}
	row, err := s.queries.GetOrder(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order", err)
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return toDTO(row)
}

// List returns orders newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, page, perPage int) (ListResult, error) {
	filter := pgtype.Text{}
	if status = strings.TrimSpace(status); status != "" {
		if !Status(status).Valid() {
			return ListResult{}, common.BadRequest("status", "unknown order status", nil)
		}
		filter = pgtype.Text{String: status, Valid: true}
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	offset := (page - 1) * perPage
	rows, err := s.queries.ListOrders(ctx, dbgen.ListOrdersParams{
		Status:      filter,
		OffsetValue: int32(offset),
		LimitValue:  int32(perPage),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.queries.CountOrders(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count orders: %w", err)
	}
	items := make([]Order, 0, len(rows))
	for _, row := range rows {
		dto, err := toDTO(row)
		if err != nil {
			return ListResult{}, err
		}
		items = append(items, dto)
	}
	return ListResult{Items: items, Total: total}, nil
}

// Update applies a partial change under a row lock. Provided line
// collections are re-snapshotted; the other collection keeps its stored
// snapshot and totals are recomputed from both.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Order, error) {
	uid, err := parseID(id)
	if err != nil {
		return Order{}, err
	}
	if err := common.ValidateStruct(lineSet{Candies: patch.Candies.Value, Packs: patch.Packs.Value}); err != nil {
		return Order{}, err
	}
	var (
		out      Order
		previous Status
		dropped  []pricing.DroppedLine
	)
	err = db.InTx(ctx, s.pool, s.queries, func(q Queries) error {
		row, err := q.GetOrderForUpdate(ctx, uid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.NotFound("order", err)
			}
			return fmt.Errorf("lock order: %w", err)
		}
		current, err := toDTO(row)
		if err != nil {
			return err
		}
		previous = current.Status

		next, err := applyScalars(current, patch)
		if err != nil {
			return err
		}
		if patch.Candies.Set || patch.Packs.Set {
			next.Candies, next.Packs, dropped, err = s.resnapshot(ctx, current, patch)
			if err != nil {
				return err
			}
			next.Totals = pricing.ComputeOrderTotals(next.Candies, next.Packs)
		}

		candyJSON, packJSON, err := encodeLines(next.Candies, next.Packs)
		if err != nil {
			return err
		}
		updated, err := q.UpdateOrder(ctx, dbgen.UpdateOrderParams{
			ID:                uid,
			Status:            string(next.Status),
			CustomerName:      next.Customer.Name,
			CustomerPhone:     next.Customer.Phone,
			CustomerEmail:     common.Text(textOf(next.Customer.Email)),
			Comment:           common.Text(textOf(next.Comment)),
			CandyLines:        candyJSON,
			PackagingLines:    packJSON,
			TotalRevenueMinor: next.Totals.RevenueMinor,
			TotalCostMinor:    next.Totals.CostMinor,
			ProfitMinor:       next.Totals.ProfitMinor,
			TotalWeightGrams:  next.Totals.WeightGrams,
			PackagingCount:    next.Totals.PackagingCount,
		})
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		out, err = toDTO(updated)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.logDropped(ctx, out.ID, dropped)
	obs.RecordOrder("update", out.Totals.RevenueMinor)
	s.emit(ctx, events.TopicOrderUpdated, uid, out, "", len(dropped))
	if out.Status != previous {
		s.emit(ctx, events.TopicOrderStatusChanged, uid, out, previous, 0)
	}
	return out, nil
}

// PatchStatus moves the order forward in the workflow. Moving to the same or
// an earlier state is rejected with INVALID_STATE.
func (s *Service) PatchStatus(ctx context.Context, id string, target Status) (Order, error) {
	uid, err := parseID(id)
	if err != nil {
		return Order{}, err
	}
	if !target.Valid() {
		return Order{}, common.BadRequest("status", "unsupported status", nil)
	}
	var (
		out      Order
		previous Status
	)
	err = db.InTx(ctx, s.pool, s.queries, func(q Queries) error {
		row, err := q.GetOrderForUpdate(ctx, uid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.NotFound("order", err)
			}
			return fmt.Errorf("lock order: %w", err)
		}
		previous = Status(row.Status)
		if !previous.CanAdvanceTo(target) {
			return invalidTransition(previous, target)
		}
		updated, err := q.UpdateOrderStatus(ctx, dbgen.UpdateOrderStatusParams{ID: uid, Status: string(target)})
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		out, err = toDTO(updated)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	obs.RecordOrder("status", -1)
	s.emit(ctx, events.TopicOrderStatusChanged, uid, out, previous, 0)
	return out, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	n, err := s.queries.DeleteOrder(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return common.NotFound("order", pgx.ErrNoRows)
	}
	return nil
}

func (s *Service) resnapshot(ctx context.Context, current Order, patch Patch) ([]pricing.CandyLine, []pricing.PackagingLine, []pricing.DroppedLine, error) {
	var candyReqs []pricing.CandyLineRequest
	var packReqs []pricing.PackagingLineRequest
	if patch.Candies.Set && !patch.Candies.Null {
		candyReqs = patch.Candies.Value
	}
	if patch.Packs.Set && !patch.Packs.Null {
		packReqs = patch.Packs.Value
	}
	snap, err := pricing.BuildOrderSnapshot(ctx, candyReqs, packReqs, s.lookup)
	if err != nil {
		return nil, nil, nil, lookupError(err)
	}
	candies, packs := current.Candies, current.Packs
	if patch.Candies.Set {
		candies = snap.CandyLines
	}
	if patch.Packs.Set {
		packs = snap.PackagingLines
	}
	return candies, packs, snap.Dropped, nil
}

func applyScalars(current Order, patch Patch) (Order, error) {
	next := current
	if c := patch.Customer; c != nil {
		if c.Name.Set {
			if c.Name.Null || strings.TrimSpace(c.Name.Value) == "" {
				return Order{}, common.BadRequest("customer.name", "customer name is required", nil)
			}
			next.Customer.Name = strings.TrimSpace(c.Name.Value)
		}
		if c.Phone.Set {
			if c.Phone.Null || strings.TrimSpace(c.Phone.Value) == "" {
				return Order{}, common.BadRequest("customer.phone", "customer phone is required", nil)
			}
			next.Customer.Phone = strings.TrimSpace(c.Phone.Value)
		}
		if c.Email.Set {
			next.Customer.Email = trimmedPtr(c.Email.Apply(next.Customer.Email))
		}
	}
	if patch.Comment.Set {
		next.Comment = trimmedPtr(patch.Comment.Apply(next.Comment))
	}
	if patch.Status.Set {
		if patch.Status.Null || !patch.Status.Value.Valid() {
			return Order{}, common.BadRequest("status", "unsupported status", nil)
		}
		target := patch.Status.Value
		if target != current.Status && !current.Status.CanAdvanceTo(target) {
			return Order{}, invalidTransition(current.Status, target)
		}
		next.Status = target
	}
	if err := common.ValidateStruct(next.Customer); err != nil {
		return Order{}, err
	}
	return next, nil
}

func (s *Service) emit(ctx context.Context, topic string, id pgtype.UUID, o Order, previous Status, dropped int) {
	if s.events == nil {
		return
	}
	payload := events.OrderPayload{
		OrderID:        o.ID,
		Number:         o.OrderNumber,
		Status:         string(o.Status),
		PreviousStatus: string(previous),
		CustomerName:   o.Customer.Name,
		CustomerEmail:  textOf(o.Customer.Email),
		RevenueMinor:   o.Totals.RevenueMinor,
		DroppedLines:   dropped,
	}
	if _, err := s.events.Emit(ctx, topic, id, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Str("order_id", o.ID).Msg("emit order event")
	}
}

func (s *Service) logDropped(ctx context.Context, orderID string, dropped []pricing.DroppedLine) {
	for _, d := range dropped {
		obs.RecordDroppedLine(d.Kind)
		s.logger.Warn().
			Ctx(ctx).
			Str("order_id", orderID).
			Str("kind", d.Kind).
			Str("item_id", d.ID).
			Msg("order line dropped: catalog item not found")
	}
}

func encodeLines(candies []pricing.CandyLine, packs []pricing.PackagingLine) ([]byte, []byte, error) {
	if candies == nil {
		candies = []pricing.CandyLine{}
	}
	if packs == nil {
		packs = []pricing.PackagingLine{}
	}
	candyJSON, err := json.Marshal(candies)
	if err != nil {
		return nil, nil, fmt.Errorf("encode candy lines: %w", err)
	}
	packJSON, err := json.Marshal(packs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode packaging lines: %w", err)
	}
	return candyJSON, packJSON, nil
}

func lookupError(err error) error {
	if errors.Is(err, pricing.ErrLookupUnavailable) {
		return common.Unavailable("LOOKUP_UNAVAILABLE", "catalog temporarily unavailable, retry later", err)
	}
	return err
}

func invalidTransition(from, to Status) error {
	appErr := common.NewAppError("INVALID_STATE", "cannot transition to equal or previous state", http.StatusConflict, nil)
	appErr.Details = map[string]any{"from": from, "to": to}
	return appErr
}

func parseID(id string) (pgtype.UUID, error) {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return pgtype.UUID{}, common.BadRequest("id", "invalid order id", err)
	}
	return uid, nil
}
