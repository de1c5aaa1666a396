package types_test

import (
	"testing"
	"time"

	"github.com/jaykayes/lottery-script/internal/domain/model"
	"github.com/jaykayes/lottery-script/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewPoolResult(t *testing.T) {
	Convey("Given ordered entries and a catalog", t, func() {
		catalog := model.NewCatalog(
			model.InventoryItem{ID: 3, Name: "Tent 2p", Stock: 1, Pool: "A"},
			model.InventoryItem{ID: 4, Name: "Stove", Stock: 1, Pool: "A"},
		)
		entries := []model.Entry{
			{Identity: "Alice", Items: []int{4, 3}},
			{Identity: "Bob", Items: []int{42}},
		}

		res := types.NewPoolResult("A", entries, catalog)

		Convey("Then winners keep entry order and item names resolve", func() {
			So(res.Pool, ShouldEqual, "A")
			So(res.Winners, ShouldHaveLength, 2)
			So(res.Winners[0].Names(), ShouldResemble, []string{"Stove", "Tent 2p"})
			So(res.Winners[0].Items[0], ShouldResemble, types.Item{ID: 4, Name: "Stove"})
		})

		Convey("Then unknown ids get a placeholder name", func() {
			So(res.Winners[1].Names(), ShouldResemble, []string{"#42"})
		})
	})

	Convey("Given no entries", t, func() {
		res := types.NewPoolResult("B", nil, model.Catalog{})
		So(res.Winners, ShouldNotBeNil)
		So(res.Winners, ShouldBeEmpty)
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given a snapshot with two pools", t, func() {
		created := time.Date(2020, 2, 11, 16, 5, 0, 0, time.UTC)
		snap := &types.Snapshot{
			RunID:     "run-1",
			LotteryID: "2020-W07",
			CreatedAt: created,
			Pools: []types.PoolResult{
				{Pool: "A", Winners: []types.Winner{{Identity: "Alice", Items: []types.Item{{ID: 1}, {ID: 2}}}}},
				{Pool: "B", Winners: []types.Winner{{Identity: "Alice", Items: []types.Item{{ID: 7}}}, {Identity: "Bob", Items: []types.Item{{ID: 8}}}}},
			},
		}

		Convey("Then pools can be looked up by name", func() {
			p, ok := snap.Pool("B")
			So(ok, ShouldBeTrue)
			So(p.Winners, ShouldHaveLength, 2)

			_, ok = snap.Pool("C")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the summary counts rows and units", func() {
			So(snap.Summary(), ShouldResemble, types.Summary{
				RunID: "run-1", LotteryID: "2020-W07", CreatedAt: created, Winners: 3, Units: 4,
			})
		})
	})
}
