package sample_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jaykayes/lottery-script/internal/adapters/intake"
	service "github.com/jaykayes/lottery-script/internal/app"
	"github.com/jaykayes/lottery-script/internal/config"
	"github.com/jaykayes/lottery-script/internal/sample"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWrite(t *testing.T) {
	Convey("Given a generated lottery", t, func() {
		ctx := context.Background()
		now := time.Date(2020, 2, 11, 12, 0, 0, 0, time.Local)
		cfg := sample.Config{Applicants: 25, Seed: 3, Now: now, DeadlineHour: 16, Period: 14 * 24 * time.Hour}

		dir := t.TempDir()
		files, err := sample.Write(ctx, dir, cfg)
		So(err, ShouldBeNil)

		Convey("Then the same seed writes the same files", func() {
			again, err := sample.Write(ctx, t.TempDir(), cfg)
			So(err, ShouldBeNil)
			for _, pair := range [][2]string{
				{files.Inventory, again.Inventory},
				{files.Applications, again.Applications},
				{files.Terms, again.Terms},
			} {
				a, err := os.ReadFile(pair[0])
				So(err, ShouldBeNil)
				b, err := os.ReadFile(pair[1])
				So(err, ShouldBeNil)
				So(string(a), ShouldEqual, string(b))
			}
		})

		Convey("Then the exports read back cleanly", func() {
			conf := config.New(ctx)
			conf.Pools = config.DefaultPools()
			conf.Groups = config.DefaultGroups()
			conf.TimestampLayouts = []string{sample.TimestampLayout}

			req, rep, err := service.LoadRequest(ctx, conf, service.Sources{
				Catalog:      files.Inventory,
				Applications: files.Applications,
				Terms:        files.Terms,
				Window:       intake.DefaultWindow(now, 16, 14*24*time.Hour),
			}, nil)
			So(err, ShouldBeNil)
			So(rep.Problems, ShouldBeEmpty)
			So(rep.Warnings, ShouldBeEmpty)
			So(rep.Accepted+rep.Ineligible, ShouldEqual, len(req.Applicants))
			So(len(req.Applicants), ShouldBeLessThanOrEqualTo, 25)
			So(req.Catalog.Groups(), ShouldHaveLength, 1)

			Convey("And the request draws", func() {
				res, err := service.New(service.WithSeed(1)).Draw(ctx, req)
				So(err, ShouldBeNil)
				So(res.Snapshot.Pools, ShouldHaveLength, 2)
			})
		})
	})
}
