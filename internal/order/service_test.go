package order_test

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/events"
	"github.com/noah-isme/backend-candy/internal/order"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

type fixture struct {
	svc     *order.Service
	queries *memQueries
	catalog *fakeCatalog
	events  *captureEmitter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	q := newMemQueries()
	cat := newFakeCatalog()
	em := &captureEmitter{}
	svc, err := order.NewService(order.ServiceConfig{
		Queries: q,
		Lookup:  order.CatalogLookup{Candies: cat, Packaging: cat},
		Events:  em,
	})
	require.NoError(t, err)
	return fixture{svc: svc, queries: q, catalog: cat, events: em}
}

func sampleInput() order.Input {
	email := " olena@example.com "
	return order.Input{
		Customer: order.Customer{Name: " Olena ", Phone: "+380501112233", Email: &email},
		Candies: []pricing.CandyLineRequest{
			{CandyID: "truffle", WeightGrams: f64(500)},
			{CandyID: "lolly", QtyPieces: f64(3.7)},
			{CandyID: "ghost", QtyPieces: f64(1)},
		},
		Packs: []pricing.PackagingLineRequest{{PackagingID: "box", Qty: 2}},
	}
}

func requireAppError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, status, appErr.HTTPStatus)
	require.Equal(t, code, appErr.Code)
}

func TestCreateSnapshotsLinesAndTotals(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)

	require.Equal(t, order.StatusNew, out.Status)
	require.Equal(t, "Olena", out.Customer.Name)
	require.Equal(t, "olena@example.com", *out.Customer.Email)
	require.Len(t, out.Candies, 2)
	require.Len(t, out.Packs, 1)

	truffle := out.Candies[0]
	require.Equal(t, pricing.ModeByWeight, truffle.PricingMode)
	require.EqualValues(t, 40000, truffle.SellPerKgMinor)
	require.EqualValues(t, 20000, truffle.SubtotalSellMinor)

	lolly := out.Candies[1]
	require.Equal(t, pricing.ModeByPiece, lolly.PricingMode)
	require.EqualValues(t, 3, lolly.QtyPieces)
	require.EqualValues(t, 550, lolly.SellUnitMinor)

	require.EqualValues(t, 49300, out.Totals.RevenueMinor)
	require.EqualValues(t, 28800, out.Totals.CostMinor)
	require.EqualValues(t, 20500, out.Totals.ProfitMinor)
	require.EqualValues(t, 1120, out.Totals.WeightGrams)
	require.EqualValues(t, 2, out.Totals.PackagingCount)

	require.Regexp(t, regexp.MustCompile(`^ORD-20240309-[0-9A-F]{6}$`), out.OrderNumber)
	require.Equal(t, []string{events.TopicOrderCreated}, f.events.topics())
	payload, ok := f.events.events[0].payload.(events.OrderPayload)
	require.True(t, ok)
	require.Equal(t, 1, payload.DroppedLines)
	require.EqualValues(t, 49300, payload.RevenueMinor)
}

func TestCreateValidatesCustomer(t *testing.T) {
	f := newFixture(t)
	in := sampleInput()
	in.Customer.Phone = "  "
	_, err := f.svc.Create(context.Background(), in)
	requireAppError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	in = sampleInput()
	bad := "not-an-email"
	in.Customer.Email = &bad
	_, err = f.svc.Create(context.Background(), in)
	requireAppError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
	require.Empty(t, f.queries.rows)
}

func TestCreateRejectsOversizedQuantities(t *testing.T) {
	f := newFixture(t)
	in := sampleInput()
	in.Candies[0].QtyPieces = f64(1e30)
	in.Candies[0].WeightGrams = f64(1e30)
	_, err := f.svc.Create(context.Background(), in)
	requireAppError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")

	in = sampleInput()
	in.Packs = []pricing.PackagingLineRequest{{PackagingID: in.Packs[0].PackagingID, Qty: 1e19}}
	_, err = f.svc.Create(context.Background(), in)
	requireAppError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
	require.Empty(t, f.queries.rows)
}

func TestUpdateRejectsOversizedQuantities(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)

	patch := order.Patch{Packs: common.Optional[[]pricing.PackagingLineRequest]{
		Set:   true,
		Value: []pricing.PackagingLineRequest{{PackagingID: "box", Qty: 2e6}},
	}}
	_, err = f.svc.Update(context.Background(), created.ID, patch)
	requireAppError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCreateLookupFailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.catalog.err = errors.New("connection refused")
	_, err := f.svc.Create(context.Background(), sampleInput())
	requireAppError(t, err, http.StatusServiceUnavailable, "LOOKUP_UNAVAILABLE")
	require.ErrorIs(t, err, pricing.ErrLookupUnavailable)
	require.Empty(t, f.queries.rows)
	require.Empty(t, f.events.topics())
}

func TestCreateSucceedsWhenEventFails(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("queue down")
	out, err := f.svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)
	require.NotEmpty(t, out.ID)
}

func TestUpdateResnapshotsOnlyProvidedCollection(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)

	repriced := f.catalog.candies["truffle"]
	repriced.Pricing = pricing.ByWeight{BuyPerKg: f64(500), SellPerKg: f64(800)}
	f.catalog.candies["truffle"] = pricing.Derive(repriced)

	patch := order.Patch{Packs: common.Some([]pricing.PackagingLineRequest{{PackagingID: "box", Qty: 1}})}
	out, err := f.svc.Update(context.Background(), created.ID, patch)
	require.NoError(t, err)

	require.EqualValues(t, 20000, out.Candies[0].SubtotalSellMinor)
	require.EqualValues(t, 24650, out.Totals.RevenueMinor)
	require.EqualValues(t, 14400, out.Totals.CostMinor)
	require.EqualValues(t, 10250, out.Totals.ProfitMinor)
	require.EqualValues(t, 560, out.Totals.WeightGrams)
	require.Equal(t, []string{events.TopicOrderCreated, events.TopicOrderUpdated}, f.events.topics())
}

func TestUpdateClearingPacksFallsBackToSinglePackage(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)

	out, err := f.svc.Update(context.Background(), created.ID, order.Patch{Packs: common.Null[[]pricing.PackagingLineRequest]()})
	require.NoError(t, err)
	require.Empty(t, out.Packs)
	require.EqualValues(t, 21650, out.Totals.RevenueMinor)
	require.EqualValues(t, 1, out.Totals.EffectivePackageCount)
}

func TestUpdateScalarsKeepsTotals(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)

	patch := order.Patch{
		Customer: &order.CustomerPatch{Email: common.Null[string]()},
		Comment:  common.Some("leave at the door"),
		Status:   common.Some(order.StatusConfirmed),
	}
	out, err := f.svc.Update(context.Background(), created.ID, patch)
	require.NoError(t, err)
	require.Nil(t, out.Customer.Email)
	require.Equal(t, "leave at the door", *out.Comment)
	require.Equal(t, order.StatusConfirmed, out.Status)
	require.Equal(t, created.Totals, out.Totals)
	require.Equal(t, []string{events.TopicOrderCreated, events.TopicOrderUpdated, events.TopicOrderStatusChanged}, f.events.topics())

	_, err = f.svc.Update(context.Background(), created.ID, order.Patch{Customer: &order.CustomerPatch{Name: common.Null[string]()}})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	_, err = f.svc.Update(context.Background(), created.ID, order.Patch{Status: common.Some(order.StatusNew)})
	requireAppError(t, err, http.StatusConflict, "INVALID_STATE")
}

func TestPatchStatusForwardOnly(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)
	ctx := context.Background()

	out, err := f.svc.PatchStatus(ctx, created.ID, order.StatusAssembling)
	require.NoError(t, err)
	require.Equal(t, order.StatusAssembling, out.Status)

	_, err = f.svc.PatchStatus(ctx, created.ID, order.StatusConfirmed)
	requireAppError(t, err, http.StatusConflict, "INVALID_STATE")
	_, err = f.svc.PatchStatus(ctx, created.ID, order.StatusAssembling)
	requireAppError(t, err, http.StatusConflict, "INVALID_STATE")
	_, err = f.svc.PatchStatus(ctx, created.ID, order.Status("lost"))
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	last := f.events.events[len(f.events.events)-1]
	require.Equal(t, events.TopicOrderStatusChanged, last.topic)
	payload := last.payload.(events.OrderPayload)
	require.Equal(t, "new", payload.PreviousStatus)
	require.Equal(t, "assembling", payload.Status)
}

func TestGetListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Create(ctx, sampleInput())
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, sampleInput())
	require.NoError(t, err)
	_, err = f.svc.PatchStatus(ctx, second.ID, order.StatusShipped)
	require.NoError(t, err)

	res, err := f.svc.List(ctx, "", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Total)
	require.Equal(t, second.ID, res.Items[0].ID)

	res, err = f.svc.List(ctx, "new", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Equal(t, first.ID, res.Items[0].ID)

	_, err = f.svc.List(ctx, "lost", 1, 10)
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	got, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.Totals, got.Totals)

	require.NoError(t, f.svc.Delete(ctx, first.ID))
	_, err = f.svc.Get(ctx, first.ID)
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")
	requireAppError(t, f.svc.Delete(ctx, first.ID), http.StatusNotFound, "NOT_FOUND")
	requireAppError(t, f.svc.Delete(ctx, "nope"), http.StatusBadRequest, "BAD_REQUEST")
}

func TestOrderNumber(t *testing.T) {
	created := time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)
	require.Equal(t, "ORD-20250102-ABC123", order.OrderNumber("5f0e6a6c-1d2b-4c3d-8e9f-00000abc123", created))
	require.Equal(t, "ORD-20250102-AB", order.OrderNumber("ab", created))
}

func TestStatusWorkflow(t *testing.T) {
	require.True(t, order.StatusNew.CanAdvanceTo(order.StatusReceived))
	require.False(t, order.StatusShipped.CanAdvanceTo(order.StatusShipped))
	require.False(t, order.StatusReceived.CanAdvanceTo(order.StatusNew))
	require.False(t, order.Status("x").CanAdvanceTo(order.StatusNew))
}
