package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"
)

// Kind identifies the entity type a CSV export carries.
type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

// Catalog is the subset of the backend catalog services the importer writes through.
type Catalog interface {
	EnsureCategory(ctx context.Context, name string) (*domain.Category, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uint64, in domain.ProductInput) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and creates or updates products and categories.
type CSVImporter struct {
	reader  *csv.Reader
	catalog Catalog
}

func NewCSVImporter(r io.Reader, catalog Catalog) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:  csvr,
		catalog: catalog,
	}
}

type csvRow struct {
	Name     string
	Desc     string
	Price    float64
	Category string
	ImageURL string
	line     int
}

// DetectKind peeks at the header row. Product exports carry a price column.
func DetectKind(r io.Reader) (Kind, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	headers, err := csv.NewReader(bytes.NewBufferString(line)).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["price"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["name"]; ok {
		return KindCategories, nil
	}
	return "", errors.New("unrecognized csv header")
}

// Run parses the rows and writes them through the catalog. Products are
// matched by name: an existing product is updated, otherwise created.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	_, hasPrice := index["price"]

	var existing map[string]uint64
	if hasPrice {
		existing, err = i.existingProducts(ctx)
		if err != nil {
			return 0, err
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if !hasPrice {
			if _, err := i.catalog.EnsureCategory(ctx, row.Name); err != nil {
				return imported, fmt.Errorf("line %d: ensure category %q: %w", line, row.Name, err)
			}
			imported++
			continue
		}

		if err := i.save(ctx, row, existing); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) existingProducts(ctx context.Context) (map[string]uint64, error) {
	products, err := i.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make(map[string]uint64, len(products))
	for _, p := range products {
		out[strings.ToLower(p.Name)] = p.ID
	}
	return out, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow, existing map[string]uint64) error {
	if row.Name == "" || row.Category == "" {
		return fmt.Errorf("line %d: invalid product row (missing name or category)", row.line)
	}
	cat, err := i.catalog.EnsureCategory(ctx, row.Category)
	if err != nil {
		return fmt.Errorf("line %d: ensure category %q: %w", row.line, row.Category, err)
	}

	in := domain.ProductInput{
		Name:        row.Name,
		Description: row.Desc,
		Price:       row.Price,
		CategoryID:  cat.ID,
		Image:       domain.Image{URL: row.ImageURL},
	}

	key := strings.ToLower(row.Name)
	if id, ok := existing[key]; ok {
		if _, err := i.catalog.UpdateProduct(ctx, id, in); err != nil {
			return fmt.Errorf("line %d: update product %q: %w", row.line, row.Name, err)
		}
		return nil
	}
	p, err := i.catalog.CreateProduct(ctx, in)
	if err != nil {
		return fmt.Errorf("line %d: create product %q: %w", row.line, row.Name, err)
	}
	existing[key] = p.ID
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	name := pick(record, index, "name")
	if name == "" {
		return nil, nil
	}

	row := &csvRow{
		Name:     name,
		Desc:     pick(record, index, "description"),
		Category: pick(record, index, "category"),
		ImageURL: pick(record, index, "image.url"),
		line:     line,
	}
	if priceStr := pick(record, index, "price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q", line, priceStr)
		}
		row.Price = price
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
