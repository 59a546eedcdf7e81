package memory

import (
	"context"
	"fmt"
	"os"

	"github.com/ariefcatur/go-pos-orders/internal/orders"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// seed file layout:
//
//	products:
//	  - id: P1
//	    name: Burger
//	    price: "1500"
//	    cost_price: "1200"
//	    stock: 10
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
	CostPrice string `yaml:"cost_price"`
	Stock     int    `yaml:"stock"`
}

// LoadSeed reads a product catalogue from a YAML file.
func LoadSeed(path string) ([]orders.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) ([]orders.Product, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	out := make([]orders.Product, 0, len(f.Products))
	seen := make(map[string]struct{}, len(f.Products))
	for i, sp := range f.Products {
		if sp.ID == "" || sp.Name == "" {
			return nil, fmt.Errorf("seed product #%d: id and name are required", i+1)
		}
		if _, dup := seen[sp.ID]; dup {
			return nil, fmt.Errorf("seed product %s: duplicate id", sp.ID)
		}
		seen[sp.ID] = struct{}{}
		if sp.Stock < 0 {
			return nil, fmt.Errorf("seed product %s: negative stock", sp.ID)
		}
		price, err := parseMoney(sp.Price)
		if err != nil {
			return nil, fmt.Errorf("seed product %s price: %w", sp.ID, err)
		}
		cost, err := parseMoney(sp.CostPrice)
		if err != nil {
			return nil, fmt.Errorf("seed product %s cost_price: %w", sp.ID, err)
		}
		out = append(out, orders.Product{
			ID:        sp.ID,
			Name:      sp.Name,
			Price:     price,
			CostPrice: cost,
			Stock:     sp.Stock,
		})
	}
	return out, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}

// ProductWriter is satisfied by both stores.
type ProductWriter interface {
	PutProduct(ctx context.Context, p orders.Product) error
}

// Seed writes every product through w.
func Seed(ctx context.Context, w ProductWriter, ps []orders.Product) error {
	for _, p := range ps {
		if err := w.PutProduct(ctx, p); err != nil {
			return fmt.Errorf("seed %s: %w", p.ID, err)
		}
	}
	return nil
}
