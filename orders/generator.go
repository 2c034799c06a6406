package orders

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/relloyd/salespipe/config"
)

// Generator produces synthetic orders.
// A zero seed gives different data on every call to NewGenerator.
type Generator struct {
	cfg   config.Generator
	faker *gofakeit.Faker
}

func NewGenerator(cfg config.Generator) *Generator {
	return &Generator{cfg: cfg, faker: gofakeit.New(cfg.Seed)}
}

// Generate returns n orders with ids 1..n.
// Order dates fall within [today - LookbackDays, today].
func (g *Generator) Generate(n int, today time.Time) []Order {
	t := today.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	retval := make([]Order, n)
	for idx := 0; idx < n; idx++ {
		retval[idx] = g.next(int64(idx+1), day)
	}
	return retval
}

func (g *Generator) next(id int64, day time.Time) Order {
	daysAgo := 0
	if g.cfg.LookbackDays > 0 {
		daysAgo = g.faker.Number(0, g.cfg.LookbackDays)
	}
	return Order{
		OrderID:      id,
		CustomerName: g.faker.Name(),
		OrderAmount:  RoundAmount(g.faker.Float64Range(g.cfg.MinAmount, g.cfg.MaxAmount)),
		OrderDate:    day.AddDate(0, 0, -daysAgo),
		Product:      g.faker.Word(),
	}
}
