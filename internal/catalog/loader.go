// Package catalog loads the product catalog and the historical
// clickstream from CSV files and derives the fields the engine scores
// on (cost price, quality score, search text).
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"profitgen/internal/domain"
)

// CostPriceFraction is the assumed cost as a fraction of list price
// when no explicit cost data exists (30% margin baseline).
const CostPriceFraction = 0.7

// Loader reads catalog and clickstream CSVs.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadCatalog reads the products CSV (up to sampleSize rows), joins
// category names from the categories CSV, drops rows with missing
// title, price or category and non-positive prices, and derives cost
// price and quality score.
func (l *Loader) LoadCatalog(productsPath, categoriesPath string, sampleSize int) ([]domain.Product, error) {
	categories, err := loadCategories(categoriesPath)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	f, err := os.Open(productsPath)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("load products: read header: %w", err)
	}
	col := columnIndex(header)

	type raw struct {
		p        domain.Product
		stars    float64
		hasStars bool
	}
	var rows []raw
	var stars []float64
	for sampleSize <= 0 || len(rows) < sampleSize {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
		asin := field(rec, col, "asin")
		title := field(rec, col, "title")
		price, priceOK := parseFloat(field(rec, col, "price"))
		catName := categories[field(rec, col, "category_id")]
		if asin == "" || title == "" || !priceOK || price <= 0 || catName == "" {
			continue
		}
		row := raw{p: domain.Product{
			ASIN:      asin,
			Title:     title,
			Price:     price,
			CostPrice: price * CostPriceFraction,
			Category:  catName,
		}}
		if s, ok := parseFloat(field(rec, col, "stars")); ok {
			row.stars = s
			row.hasStars = true
			stars = append(stars, s)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("load products: no usable rows in %s", productsPath)
	}

	// Missing star ratings get the catalog median so absent reviews
	// neither reward nor punish a product.
	med := median(stars)
	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		s := med
		if row.hasStars {
			s = row.stars
		}
		row.p.QualityScore = s / 5.0
		products[i] = row.p
	}
	l.logger.Info().Int("products", len(products)).Str("path", productsPath).Msg("catalog loaded")
	return products, nil
}

// LoadClickstream reads the semicolon-separated clickstream CSV into
// session events ordered as they appear in the file.
func (l *Loader) LoadClickstream(path string) ([]domain.SessionEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load clickstream: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("load clickstream: read header: %w", err)
	}
	col := columnIndex(header)

	var events []domain.SessionEvent
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load clickstream: %w", err)
		}
		price, ok := parseFloat(field(rec, col, "price"))
		if !ok {
			continue
		}
		ord, _ := strconv.Atoi(field(rec, col, "order"))
		events = append(events, domain.SessionEvent{
			SessionID: field(rec, col, "session_id"),
			Order:     ord,
			Price:     price,
			Category:  field(rec, col, "page_1_main_category"),
		})
	}
	l.logger.Info().Int("events", len(events)).Str("path", path).Msg("clickstream loaded")
	return events, nil
}

func loadCategories(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	col := columnIndex(header)

	out := make(map[string]string)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		id := field(rec, col, "id")
		name := field(rec, col, "category_name")
		if id != "" && name != "" {
			out[id] = name
		}
	}
	return out, nil
}

// columnIndex maps normalized header names to positions. Names are
// lowercased with spaces and parentheses stripped, so "session ID" and
// "page 1 (main category)" resolve to session_id and
// page_1_main_category.
func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[normalizeHeader(h)] = i
	}
	return col
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "(", "")
	h = strings.ReplaceAll(h, ")", "")
	return h
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
