package pricing

import (
	"strconv"
	"strings"
)

type Destination struct {
	Name      string  `json:"name"`
	BasePrice float64 `json:"basePrice"`
}

type Quote struct {
	Destination string  `json:"destination"`
	BasePrice   float64 `json:"basePrice"`
	Guests      int     `json:"guests"`
	TotalPrice  float64 `json:"totalPrice"`
}

type PricingUseCase interface {
	Destinations() []Destination
	BasePrice(destination string) (float64, bool)
	Total(destination string, guests int) float64
	Quote(destination, guests string) Quote
}

var defaultCatalog = []Destination{
	{Name: "Bali, Indonesia", BasePrice: 2499},
	{Name: "Bora Bora, Polynesia", BasePrice: 1599},
	{Name: "Hawaii, USA", BasePrice: 3499},
	{Name: "Whitehaven, Australia", BasePrice: 2499},
	{Name: "Hvar, Croatia", BasePrice: 1999},
}

// Calculator prices trips from a fixed per-guest table. It is safe for
// concurrent use because the table is never modified after construction.
type Calculator struct {
	catalog []Destination
	index   map[string]float64
}

func NewCalculator() *Calculator {
	return NewCalculatorWithCatalog(defaultCatalog)
}

func NewCalculatorWithCatalog(catalog []Destination) *Calculator {
	c := &Calculator{
		catalog: append([]Destination(nil), catalog...),
		index:   make(map[string]float64, len(catalog)*2),
	}
	for _, d := range c.catalog {
		c.index[normalize(d.Name)] = d.BasePrice
		if short := shortName(d.Name); short != "" {
			if _, taken := c.index[short]; !taken {
				c.index[short] = d.BasePrice
			}
		}
	}
	return c
}

func (c *Calculator) Destinations() []Destination {
	return append([]Destination(nil), c.catalog...)
}

// BasePrice accepts either the full catalog name ("Bali, Indonesia") or the
// part before the comma ("bali").
func (c *Calculator) BasePrice(destination string) (float64, bool) {
	price, ok := c.index[normalize(destination)]
	return price, ok
}

// Total returns base price times guests. Unknown destinations cost 0.
func (c *Calculator) Total(destination string, guests int) float64 {
	if guests < 1 {
		guests = 1
	}
	base, _ := c.BasePrice(destination)
	return base * float64(guests)
}

// Quote mirrors the booking form calculator: the guest count falls back to 1
// when it is missing or not a number.
func (c *Calculator) Quote(destination, guests string) Quote {
	n := ParseGuests(guests)
	base, _ := c.BasePrice(destination)
	return Quote{
		Destination: strings.TrimSpace(destination),
		BasePrice:   base,
		Guests:      n,
		TotalPrice:  base * float64(n),
	}
}

func ParseGuests(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func shortName(name string) string {
	head, _, found := strings.Cut(name, ",")
	if !found {
		return ""
	}
	return normalize(head)
}

var _ PricingUseCase = (*Calculator)(nil)
