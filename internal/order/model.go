package order

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Status is the order workflow state.
type Status string

const (
	StatusNew        Status = "new"
	StatusConfirmed  Status = "confirmed"
	StatusAssembling Status = "assembling"
	StatusShipped    Status = "shipped"
	StatusReceived   Status = "received"
)

var statusRank = map[Status]int{
	StatusNew:        0,
	StatusConfirmed:  1,
	StatusAssembling: 2,
	StatusShipped:    3,
	StatusReceived:   4,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether target is strictly later in the workflow.
func (s Status) CanAdvanceTo(target Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[target]
	return ok && to > from
}

// Customer holds contact details of the buyer.
type Customer struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Phone string  `json:"phone" validate:"required,max=40"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// Input is the payload accepted when placing an order. Totals are always
// computed server side.
type Input struct {
	Customer Customer                       `json:"customer"`
	Comment  *string                        `json:"comment"`
	Candies  []pricing.CandyLineRequest     `json:"candies" validate:"dive"`
	Packs    []pricing.PackagingLineRequest `json:"packs" validate:"dive"`
}

// lineSet validates patched line collections with the same rules as Input.
type lineSet struct {
	Candies []pricing.CandyLineRequest     `json:"candies" validate:"dive"`
	Packs   []pricing.PackagingLineRequest `json:"packs" validate:"dive"`
}

// CustomerPatch carries optional customer field changes.
type CustomerPatch struct {
	Name  common.Optional[string] `json:"name"`
	Phone common.Optional[string] `json:"phone"`
	Email common.Optional[string] `json:"email"`
}

// Patch is a partial order update. A provided line collection replaces the
// stored one and is snapshotted against the current catalog.
type Patch struct {
	Customer *CustomerPatch                                  `json:"customer"`
	Comment  common.Optional[string]                         `json:"comment"`
	Status   common.Optional[Status]                         `json:"status"`
	Candies  common.Optional[[]pricing.CandyLineRequest]     `json:"candies"`
	Packs    common.Optional[[]pricing.PackagingLineRequest] `json:"packs"`
}

// Order is the API representation of a stored order.
type Order struct {
	ID          string                  `json:"id"`
	OrderNumber string                  `json:"orderNumber"`
	Status      Status                  `json:"status"`
	Customer    Customer                `json:"customer"`
	Comment     *string                 `json:"comment"`
	Candies     []pricing.CandyLine     `json:"candies"`
	Packs       []pricing.PackagingLine `json:"packs"`
	Totals      pricing.Totals          `json:"totals"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// OrderNumber renders the human friendly ORD-YYYYMMDD-XXXXXX number from the
// creation date and the last six characters of the id.
func OrderNumber(id string, createdAt time.Time) string {
	tail := strings.ReplaceAll(id, "-", "")
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return fmt.Sprintf("ORD-%s-%s", createdAt.Format("20060102"), strings.ToUpper(tail))
}

func toDTO(row dbgen.Order) (Order, error) {
	id := common.UUIDString(row.ID)
	created := common.Time(row.CreatedAt)
	out := Order{
		ID:          id,
		OrderNumber: OrderNumber(id, created),
		Status:      Status(row.Status),
		Customer: Customer{
			Name:  row.CustomerName,
			Phone: row.CustomerPhone,
			Email: common.TextPtr(row.CustomerEmail),
		},
		Comment:   common.TextPtr(row.Comment),
		CreatedAt: created,
		UpdatedAt: common.Time(row.UpdatedAt),
	}
	var err error
	if out.Candies, err = decodeCandyLines(row.CandyLines); err != nil {
		return Order{}, err
	}
	if out.Packs, err = decodePackagingLines(row.PackagingLines); err != nil {
		return Order{}, err
	}
	out.Totals = pricing.Totals{
		RevenueMinor:          row.TotalRevenueMinor,
		CostMinor:             row.TotalCostMinor,
		ProfitMinor:           row.ProfitMinor,
		WeightGrams:           row.TotalWeightGrams,
		PackagingCount:        row.PackagingCount,
		EffectivePackageCount: max(1, row.PackagingCount),
	}
	return out, nil
}

func decodeCandyLines(raw []byte) ([]pricing.CandyLine, error) {
	lines := []pricing.CandyLine{}
	if len(raw) == 0 {
		return lines, nil
	}
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode candy lines: %w", err)
	}
	return lines, nil
}

func decodePackagingLines(raw []byte) ([]pricing.PackagingLine, error) {
	lines := []pricing.PackagingLine{}
	if len(raw) == 0 {
		return lines, nil
	}
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode packaging lines: %w", err)
	}
	return lines, nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func textOf(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
