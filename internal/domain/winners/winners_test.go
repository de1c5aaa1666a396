package winners_test

import (
	"testing"

	"github.com/jaykayes/lottery-script/internal/domain/model"
	"github.com/jaykayes/lottery-script/internal/domain/winners"
	. "github.com/smartystreets/goconvey/convey"
	"pgregory.net/rapid"
)

func TestAggregate(t *testing.T) {
	Convey("Given winner maps from the independent and exclusive passes", t, func() {
		independent := model.WinnerMap{
			30: {"Carol", "Alice"},
			5:  {"Alice"},
		}
		exclusive := model.WinnerMap{
			10: {"Bob"},
			11: {"Alice"},
		}

		agg := winners.Aggregate(independent, exclusive)

		Convey("Then each applicant lists its items, map by map and id by id", func() {
			So(agg["Alice"], ShouldResemble, []int{5, 30, 11})
			So(agg["Bob"], ShouldResemble, []int{10})
			So(agg["Carol"], ShouldResemble, []int{30})
		})

		Convey("Then Count reports applicants and units", func() {
			applicants, units := winners.Count(agg)
			So(applicants, ShouldEqual, 3)
			So(units, ShouldEqual, 5)
		})
	})

	Convey("Given an identity listed twice for one item", t, func() {
		agg := winners.Aggregate(model.WinnerMap{2: {"Alice", "Alice"}})

		Convey("Then the multiplicity is preserved", func() {
			So(agg["Alice"], ShouldResemble, []int{2, 2})
		})
	})

	Convey("Given no maps", t, func() {
		So(winners.Aggregate(), ShouldBeEmpty)
	})
}

func TestOrder(t *testing.T) {
	Convey("Given aggregated winners", t, func() {
		agg := model.AggregatedWinners{
			"bob":   {3},
			"Alice": {7, 1},
			"Émile": {2},
			"Bob":   {4},
		}

		entries := winners.Order(agg)

		Convey("Then entries sort by plain byte comparison", func() {
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Identity
			}
			So(names, ShouldResemble, []string{"Alice", "Bob", "bob", "Émile"})
		})

		Convey("Then item order inside an entry is kept", func() {
			So(entries[0].Items, ShouldResemble, []int{7, 1})
		})

		Convey("Then ordering the output again changes nothing", func() {
			again := winners.OrderEntries(append([]model.Entry(nil), entries...))
			So(again, ShouldResemble, entries)
		})
	})
}

func TestProperty_OrderIsSortedAndIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfDistinct(rapid.StringN(0, 6, -1), func(s string) string { return s }).Draw(t, "names")
		agg := make(model.AggregatedWinners, len(names))
		for i, n := range names {
			agg[n] = []int{i}
		}

		entries := winners.Order(agg)
		for i := 1; i < len(entries); i++ {
			if entries[i-1].Identity > entries[i].Identity {
				t.Fatalf("not sorted at %d: %q > %q", i, entries[i-1].Identity, entries[i].Identity)
			}
		}
		again := winners.OrderEntries(append([]model.Entry(nil), entries...))
		for i := range entries {
			if again[i].Identity != entries[i].Identity {
				t.Fatalf("re-ordering moved %q", entries[i].Identity)
			}
		}
	})
}
