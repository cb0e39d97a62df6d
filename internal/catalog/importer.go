package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Upserter stores an imported candy keyed by (name, category).
type Upserter interface {
	Upsert(ctx context.Context, in CandyInput) (Candy, bool, error)
}

// ImportRow is a spreadsheet row mapped onto candy fields. Prices are per kg
// for weighted rows and per piece otherwise.
type ImportRow struct {
	Line            int      `json:"line"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	PriceBuy        *float64 `json:"priceBuy,omitempty"`
	PriceSell       *float64 `json:"priceSell,omitempty"`
	UnitWeightGrams *float64 `json:"unitWeightGrams,omitempty"`
	Weighted        bool     `json:"weighted"`
}

// SkippedRow explains why a spreadsheet row was not imported.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarises an import run.
type ImportReport struct {
	Rows     int          `json:"rows"`
	Inserted int          `json:"inserted"`
	Updated  int          `json:"updated"`
	Failed   int          `json:"failed"`
	Skipped  []SkippedRow `json:"skipped"`
	Dry      bool         `json:"dry"`
	Sample   *CandyInput  `json:"sample,omitempty"`
}

type column int

const (
	colUnknown column = iota
	colName
	colCategory
	colBuy
	colSell
	colWeight
	colWeighted
)

var (
	spaces     = regexp.MustCompile(`\s+`)
	nonNumeric = regexp.MustCompile(`[^\d.\-]`)
)

// ReadSheet loads every row of the named sheet, or of the first sheet when
// sheet is empty.
func ReadSheet(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ParseRows maps raw rows, the first being the header, onto ImportRows.
// Rows without a name or category are skipped with a reason.
func ParseRows(rows [][]string) ([]ImportRow, []SkippedRow) {
	skipped := []SkippedRow{}
	if len(rows) < 2 {
		return nil, skipped
	}
	header := make([]column, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = pickColumn(h)
	}

	out := make([]ImportRow, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		line := i + 2
		if blank(raw) {
			continue
		}
		row := ImportRow{Line: line, Weighted: true}
		for j, cell := range raw {
			if j >= len(header) {
				break
			}
			switch header[j] {
			case colName:
				row.Name = strings.TrimSpace(cell)
			case colCategory:
				row.Category = strings.TrimSpace(cell)
			case colBuy:
				row.PriceBuy = ParseNumber(cell)
			case colSell:
				row.PriceSell = ParseNumber(cell)
			case colWeight:
				row.UnitWeightGrams = ParseNumber(cell)
			case colWeighted:
				if strings.TrimSpace(cell) != "" {
					row.Weighted = parseFlag(cell)
				}
			}
		}
		if row.Name == "" {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "empty name"})
			continue
		}
		if row.Category == "" {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "empty category"})
			continue
		}
		out = append(out, row)
	}
	return out, skipped
}

// Input converts the row into a create/upsert payload.
func (r ImportRow) Input() CandyInput {
	in := CandyInput{Name: r.Name, Category: r.Category}
	if w := r.UnitWeightGrams; w != nil && *w > 0 {
		in.UnitWeightGrams = w
	}
	if r.Weighted {
		in.PricingMode = string(pricing.ModeByWeight)
		in.PricePerKgBuy = nonNegative(r.PriceBuy)
		in.PricePerKgSell = nonNegative(r.PriceSell)
	} else {
		in.PricingMode = string(pricing.ModeByPiece)
		in.PricePerPieceBuy = nonNegative(r.PriceBuy)
		in.PricePerPieceSell = nonNegative(r.PriceSell)
	}
	return in
}

// Import upserts every row through target. With dry set nothing is written
// and the first payload is returned as a sample.
func Import(ctx context.Context, target Upserter, rows []ImportRow, skipped []SkippedRow, dry bool) (ImportReport, error) {
	report := ImportReport{Rows: len(rows), Skipped: skipped, Dry: dry}
	if report.Skipped == nil {
		report.Skipped = []SkippedRow{}
	}
	if dry {
		if len(rows) > 0 {
			sample := rows[0].Input()
			report.Sample = &sample
		}
		return report, nil
	}
	if target == nil {
		return report, errors.New("catalog: import target is required")
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, created, err := target.Upsert(ctx, row.Input())
		if err != nil {
			report.Failed++
			report.Skipped = append(report.Skipped, SkippedRow{Line: row.Line, Reason: err.Error()})
			continue
		}
		if created {
			report.Inserted++
		} else {
			report.Updated++
		}
	}
	return report, nil
}

// ParseNumber reads loosely formatted numbers such as "12,5 грн" or
// " 1 200 ". It returns nil when nothing numeric is left.
func ParseNumber(value string) *float64 {
	s := strings.Replace(strings.TrimSpace(value), ",", ".", 1)
	s = spaces.ReplaceAllString(s, "")
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

func pickColumn(header string) column {
	h := strings.ToLower(strings.TrimSpace(spaces.ReplaceAllString(header, " ")))
	switch {
	case strings.HasPrefix(h, "назва") || h == "name":
		return colName
	case strings.HasPrefix(h, "категор") || strings.HasPrefix(h, "category"):
		return colCategory
	case strings.Contains(h, "ціна") && strings.Contains(h, "вх"), strings.Contains(h, "buy"):
		return colBuy
	case strings.Contains(h, "ціна") && strings.Contains(h, "прод"), strings.Contains(h, "sell"):
		return colSell
	case strings.Contains(h, "вага") && (strings.Contains(h, "1шт") || strings.Contains(h, "1 шт") || strings.Contains(h, "за 1")),
		strings.Contains(h, "weight") && !strings.Contains(h, "weighted"):
		return colWeight
	case strings.HasPrefix(h, "вагов") || strings.Contains(h, "weighted"):
		return colWeighted
	default:
		return colUnknown
	}
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "так", "yes", "y":
		return true
	default:
		return false
	}
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func nonNegative(v *float64) *float64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}
