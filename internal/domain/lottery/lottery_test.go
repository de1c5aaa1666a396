package lottery_test

import (
	"testing"

	"github.com/jaykayes/lottery-script/internal/domain/draw"
	"github.com/jaykayes/lottery-script/internal/domain/lottery"
	"github.com/jaykayes/lottery-script/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// countingSampler records how often randomness was requested.
type countingSampler struct {
	inner    draw.Sampler
	samples  int
	shuffles int
}

func (c *countingSampler) Sample(population []string, k int) []string {
	c.samples++
	return c.inner.Sample(population, k)
}

func (c *countingSampler) Shuffle(n int, swap func(i, j int)) {
	c.shuffles++
	c.inner.Shuffle(n, swap)
}

func seeded(seed uint64) *countingSampler {
	return &countingSampler{inner: draw.New(draw.WithSeed(seed))}
}

func item(id, stock int) model.InventoryItem {
	return model.InventoryItem{ID: id, Name: "item", Stock: stock, Pool: "A"}
}

func TestAllocate(t *testing.T) {
	Convey("Given an undersubscribed item (scenario A)", t, func() {
		catalog := model.NewCatalog(item(1, 3))
		demand := model.DemandMap{1: {"Alice", "Bob"}}
		s := seeded(1)

		winners := lottery.Allocate(demand, catalog, s)

		Convey("Then everyone wins in demand order without a draw", func() {
			So(winners[1], ShouldResemble, []string{"Alice", "Bob"})
			So(s.samples, ShouldEqual, 0)
		})

		Convey("And the winner list does not alias the demand list", func() {
			winners[1][0] = "Mallory"
			So(demand[1][0], ShouldEqual, "Alice")
		})
	})

	Convey("Given an oversubscribed item (scenario B)", t, func() {
		catalog := model.NewCatalog(item(2, 1))
		demand := model.DemandMap{2: {"Alice", "Bob", "Carol"}}
		s := seeded(2)

		winners, outcomes := lottery.AllocateWithOutcomes(demand, catalog, s)

		Convey("Then exactly one of the three wins", func() {
			So(winners[2], ShouldHaveLength, 1)
			So([]string{"Alice", "Bob", "Carol"}, ShouldContain, winners[2][0])
			So(s.samples, ShouldEqual, 1)
			So(outcomes, ShouldResemble, []lottery.Outcome{{Item: 2, Demand: 3, Winners: 1, Oversubscribed: true}})
		})

		Convey("And the demand map is untouched", func() {
			So(demand[2], ShouldResemble, []string{"Alice", "Bob", "Carol"})
		})
	})

	Convey("Given repeated oversubscribed draws", t, func() {
		catalog := model.NewCatalog(item(2, 1))
		demand := model.DemandMap{2: {"Alice", "Bob", "Carol"}}
		s := draw.New(draw.WithSeed(3))
		counts := map[string]int{}
		const trials = 9000
		for i := 0; i < trials; i++ {
			counts[lottery.Allocate(demand, catalog, s)[2][0]]++
		}

		Convey("Then each applicant wins about a third of the time", func() {
			for _, who := range []string{"Alice", "Bob", "Carol"} {
				So(float64(counts[who])/trials, ShouldAlmostEqual, 1.0/3, 0.03)
			}
		})
	})

	Convey("Given zero, negative and empty cases", t, func() {
		catalog := model.NewCatalog(item(1, 0), item(2, -3), item(3, 5))
		demand := model.DemandMap{1: {"Alice"}, 2: {"Bob", "Carol"}, 3: {}, 42: {"Dave"}}

		winners := lottery.Allocate(demand, catalog, seeded(4))

		Convey("Then zero or negative stock yields nobody", func() {
			So(winners[1], ShouldBeEmpty)
			So(winners[2], ShouldBeEmpty)
		})

		Convey("Then empty demand yields nobody regardless of stock", func() {
			So(winners, ShouldContainKey, 3)
			So(winners[3], ShouldBeEmpty)
		})

		Convey("Then items missing from the catalog are skipped", func() {
			So(winners, ShouldNotContainKey, 42)
		})
	})

	Convey("Given the same seed twice", t, func() {
		catalog := model.NewCatalog(item(1, 2), item(2, 1), item(3, 4))
		demand := model.DemandMap{
			1: {"a", "b", "c", "d", "e"},
			2: {"c", "d"},
			3: {"a", "b"},
		}

		Convey("Then the winner maps are identical", func() {
			first := lottery.Allocate(demand, catalog, draw.New(draw.WithSeed(77)))
			second := lottery.Allocate(demand, catalog, draw.New(draw.WithSeed(77)))
			So(first, ShouldResemble, second)
		})

		Convey("Then undersubscribed items match even without a seed", func() {
			first := lottery.Allocate(demand, catalog, draw.New())
			second := lottery.Allocate(demand, catalog, draw.New())
			So(first[3], ShouldResemble, second[3])
		})
	})
}
