package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jaykayes/lottery-script/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "key-1")
			second := d.SeenAndRecord(ctx, "key-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "key-1")
			d.Unrecord(ctx, "key-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "key-1"), ShouldBeFalse)
			})
		})

		Convey("When many keys are recorded", func() {
			for i := 0; i < 1000; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i)), ShouldBeFalse)
			}

			Convey("Then none is evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "key-0"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper bounded to three keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"a", "b", "c", "d"} {
			So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
		}

		Convey("Then the oldest key was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
		})

		Convey("Then unrecording frees a slot without evicting", func() {
			d.Unrecord(ctx, "c")
			So(d.SeenAndRecord(ctx, "e"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
		})
	})
}

func TestDeduperConcurrency(t *testing.T) {
	Convey("Given goroutines recording distinct keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(5000))
		var wg sync.WaitGroup
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					d.SeenAndRecord(context.Background(), fmt.Sprintf("key-%d-%d", g, i))
				}
			}(g)
		}
		wg.Wait()

		Convey("Then every key is counted once", func() {
			So(d.Size(), ShouldEqual, 1000)
		})
	})
}

type submission struct {
	name, username string
	seq            int
}

func TestKeepLast(t *testing.T) {
	byName := func(s submission) string { return s.name }
	byUsername := func(s submission) string { return s.username }

	Convey("Given repeated submissions", t, func() {
		subs := []submission{
			{"Alice", "alice", 1},
			{"Bob", "bob", 2},
			{"Alice", "alice", 3},
			{"Robert", "bob", 4},
			{"Carol", "", 5},
			{"Dave", "", 6},
		}

		Convey("When deduped by name then username", func() {
			got, removed := dedupe.KeepLast(context.Background(), subs, byName, byUsername)

			Convey("Then the latest submission per key survives in input order", func() {
				seqs := make([]int, len(got))
				for i, s := range got {
					seqs[i] = s.seq
				}
				So(seqs, ShouldResemble, []int{3, 4, 5, 6})
				So(removed, ShouldEqual, 2)
			})
		})

		Convey("Then the input slice is left alone", func() {
			dedupe.KeepLast(context.Background(), subs, byName)
			So(subs, ShouldHaveLength, 6)
			So(subs[0].seq, ShouldEqual, 1)
		})
	})

	Convey("Given no key functions", t, func() {
		got, removed := dedupe.KeepLast(context.Background(), []submission{{"A", "a", 1}, {"A", "a", 2}})
		So(got, ShouldHaveLength, 2)
		So(removed, ShouldEqual, 0)
	})
}
