package flyer

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	General Category = "general"
	Meat    Category = "meat"
	Produce Category = "produce"
)

var (
	ErrBadCategory = errors.New("unknown category")
	ErrBadEntry    = errors.New("invalid entry")
	ErrNotFound    = errors.New("entry not found")
)

const maxPriceCents = 10_000_000

var Categories = []Category{General, Meat, Produce}

var categoryUnits = map[Category][]string{
	General: {"un", "pct", "cx", "fd"},
	Meat:    {"kg", "un", "bdj"},
	Produce: {"kg", "un", "mc", "bdj"},
}

var categoryLabels = map[Category]string{
	General: "Mercearia",
	Meat:    "Açougue",
	Produce: "Hortifruti",
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryUnits[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrBadCategory, s)
	}
	return c, nil
}

func (c Category) Label() string { return categoryLabels[c] }

func (c Category) Units() []string { return categoryUnits[c] }

type Entry struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	ProductName string    `json:"product_name"`
	PriceCents  int64     `json:"price_cents"`
	Unit        string    `json:"unit"`
	Notes       string    `json:"notes,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type EntryInput struct {
	Category    string `json:"category"`
	ProductName string `json:"product_name"`
	PriceCents  int64  `json:"price_cents"`
	Unit        string `json:"unit"`
	Notes       string `json:"notes"`
}

// Validate normalizes the input into an Entry without id, author or time.
func (in EntryInput) Validate() (Entry, error) {
	cat, err := ParseCategory(in.Category)
	if err != nil {
		return Entry{}, err
	}

	name := strings.Join(strings.Fields(in.ProductName), " ")
	if name == "" {
		return Entry{}, fmt.Errorf("%w: product name required", ErrBadEntry)
	}
	if in.PriceCents <= 0 || in.PriceCents > maxPriceCents {
		return Entry{}, fmt.Errorf("%w: price out of range", ErrBadEntry)
	}

	unit := strings.ToLower(strings.TrimSpace(in.Unit))
	if unit == "" {
		unit = cat.Units()[0]
	}
	if !slices.Contains(cat.Units(), unit) {
		return Entry{}, fmt.Errorf("%w: unit %q not allowed for %s", ErrBadEntry, unit, cat)
	}

	return Entry{
		Category:    cat,
		ProductName: name,
		PriceCents:  in.PriceCents,
		Unit:        unit,
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

// ParsePriceCents reads prices typed the Brazilian way ("7,99", "1.234,50")
// as well as plain "7.99".
func ParsePriceCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: price required", ErrBadEntry)
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.ContainsAny(whole+frac, "+-") {
		return 0, fmt.Errorf("%w: price %q", ErrBadEntry, s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: price %q has too many decimals", ErrBadEntry, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("%w: price %q", ErrBadEntry, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%w: price %q", ErrBadEntry, s)
	}
	if w > maxPriceCents/100 {
		return 0, fmt.Errorf("%w: price out of range", ErrBadEntry)
	}
	return w*100 + f, nil
}

func FormatPrice(cents int64) string {
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("R$ %s,%02d", b.String(), cents%100)
}
