package orders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ResolveCosts snapshots the current cost price of every referenced product.
// A product that cannot be found resolves to zero rather than blocking the
// sale, so the result always covers every requested id.
func ResolveCosts(ctx context.Context, r CostReader, productIDs []string) (map[string]decimal.Decimal, error) {
	ids := uniqueIDs(productIDs)
	out := make(map[string]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	found, err := r.ProductCosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve costs: %w", err)
	}
	for _, id := range ids {
		if c, ok := found[id]; ok {
			out[id] = c
			continue
		}
		out[id] = decimal.Zero
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
