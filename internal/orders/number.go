package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type Prefix string

const (
	PrefixStaff   Prefix = "ORD"
	PrefixVisitor Prefix = "VIS"
)

// NumberGenerator builds display numbers like ORD-20240115-1423-0427 without
// a shared counter. Uniqueness is probabilistic (10k suffixes per minute);
// the orders.number column is UNIQUE and a clash aborts the transaction.
type NumberGenerator struct {
	now  func() time.Time
	intn func(n int) int
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{now: time.Now, intn: rand.IntN}
}

// NewNumberGeneratorWith uses the given clock and suffix source.
func NewNumberGeneratorWith(now func() time.Time, intn func(n int) int) *NumberGenerator {
	return &NumberGenerator{now: now, intn: intn}
}

func (g *NumberGenerator) Next(p Prefix) string {
	t := g.now()
	return fmt.Sprintf("%s-%s-%s-%04d", p, t.Format("20060102"), t.Format("1504"), g.intn(10000))
}
