package inventory

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

// Property: whatever mix of purchases and restocks is issued, no cached
// quantity goes below zero and the cache ends up agreeing with the server.
func TestQuantityNeverNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("quantity stays non-negative", prop.ForAll(
		func(start int, restock []bool, qtys []int) bool {
			log, _ := test.NewNullLogger()
			api := newFakeAPI(catalog.Item{ID: "s-1", Name: "Ladoo", Category: "Indian", Price: 1, Quantity: start})
			cache := catalog.NewCache()
			o := NewOrchestrator(api, cache, sessionAs(user.RoleAdmin), WithLogger(log), WithRegisterer(prometheus.NewRegistry()))
			ctx := context.Background()
			if o.Load(ctx) != nil {
				return false
			}

			for i, qty := range qtys {
				if i < len(restock) && restock[i] {
					_, _ = o.Restock(ctx, "s-1", qty)
				} else {
					_, _ = o.Purchase(ctx, "s-1", qty)
				}
				it, err := cache.Get("s-1")
				if err != nil || it.Quantity < 0 {
					return false
				}
			}

			server, _ := api.List(ctx)
			it, _ := cache.Get("s-1")
			return len(server) == 1 && server[0].Quantity == it.Quantity
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.Bool()),
		gen.SliceOf(gen.IntRange(-3, 12)),
	))

	properties.TestingRun(t)
}
