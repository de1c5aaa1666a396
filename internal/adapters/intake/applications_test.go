package intake_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jaykayes/lottery-script/internal/adapters/intake"
	"github.com/jaykayes/lottery-script/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var form = intake.Form{
	Pools: []intake.PoolColumn{
		{Pool: "Sjoeskrenten", Column: "Equipment Sjoeskrenten"},
		{Pool: "Snowscooter", Column: "Equipment Ski/Snowscooter"},
	},
	Layouts:  []string{"2006/01/02 15:04:05"},
	Location: time.UTC,
}

const applications = `Timestamp,Username,Name,Equipment Sjoeskrenten,Equipment Ski/Snowscooter
2020/02/01 10:00:00,alice@example.org,Alice,"3, 4,",7
2020/02/02 11:00:00,bob@example.org,  Bob   Builder ,,"7, 11"
2020/02/03 12:00:00,carol@example.org,Carol,3 4,8
yesterday,dave@example.org,Dave,3,
2020/02/04 09:00:00,eve@example.org,,3,
2020/02/05 09:00:00,frank@example.org,Frank,7,99
,,,,
`

func TestReadApplications(t *testing.T) {
	catalog, err := intake.ReadCatalog(strings.NewReader(inventory))
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given a form export", t, func() {
		apps, problems, err := intake.ReadApplications(strings.NewReader(applications), catalog, form)
		So(err, ShouldBeNil)

		Convey("Then readable rows become applicants in form order", func() {
			names := make([]string, len(apps))
			for i, a := range apps {
				names[i] = a.Identity
			}
			So(names, ShouldResemble, []string{"Alice", "Bob Builder", "Carol", "Frank"})
		})

		Convey("Then id lists from every pool column are merged", func() {
			So(apps[0].Requested, ShouldResemble, []int{3, 4, 7})
			So(apps[0].Username, ShouldEqual, "alice@example.org")
			So(apps[0].Submitted, ShouldEqual, time.Date(2020, 2, 1, 10, 0, 0, 0, time.UTC))
			So(apps[1].Requested, ShouldResemble, []int{7, 11})
		})

		Convey("Then an unreadable list drops only that pool", func() {
			So(apps[2].Requested, ShouldResemble, []int{8})
		})

		Convey("Then ids from another pool are dropped, unknown ids pass", func() {
			So(apps[3].Requested, ShouldResemble, []int{99})
		})

		Convey("Then every dropped part is reported", func() {
			reasons := make([]string, len(problems))
			for i, p := range problems {
				reasons[i] = p.Reason
			}
			So(reasons, ShouldResemble, []string{
				intake.ReasonBadList,
				intake.ReasonBadTimestamp,
				intake.ReasonNoName,
				intake.ReasonWrongPool,
			})
			So(problems[0].Row, ShouldEqual, 4)
			So(problems[0].Pool, ShouldEqual, model.Pool("Sjoeskrenten"))
			So(problems[0].String(), ShouldContainSubstring, "Carol")
			So(problems[3].Value, ShouldEqual, "7")
		})
	})

	Convey("Given an export missing a pool column", t, func() {
		_, _, err := intake.ReadApplications(strings.NewReader("Timestamp,Name\n"), catalog, form)
		So(errors.Is(err, intake.ErrMalformedApplications), ShouldBeTrue)
		So(errors.Is(err, intake.ErrMissingColumn), ShouldBeTrue)
	})

	Convey("Given the export on disk", t, func() {
		path := filepath.Join(t.TempDir(), "SE Applications.csv")
		So(os.WriteFile(path, []byte(applications), 0o600), ShouldBeNil)

		apps, problems, err := intake.ReadApplicationsFile(path, catalog, form)
		So(err, ShouldBeNil)
		So(apps, ShouldHaveLength, 4)
		So(problems, ShouldHaveLength, 4)

		suggested, ok := intake.SuggestApplications(filepath.Dir(path))
		So(ok, ShouldBeTrue)
		So(suggested, ShouldEqual, path)
	})
}

func TestParseIDs(t *testing.T) {
	Convey("Given free-text id lists", t, func() {
		cases := []struct {
			in   string
			want []int
		}{
			{"12, 14, 3,", []int{12, 14, 3}},
			{" 5 ", []int{5}},
			{"1,2 ,  3, ,", []int{1, 2, 3}},
			{"7,7", []int{7, 7}},
		}
		for _, tc := range cases {
			got, err := intake.ParseIDs(tc.in)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, tc.want)
		}

		empty, err := intake.ParseIDs("  ")
		So(err, ShouldBeNil)
		So(empty, ShouldBeEmpty)

		for _, bad := range []string{"3 4", "1,,2", "two", "1;2"} {
			_, err := intake.ParseIDs(bad)
			So(err, ShouldNotBeNil)
		}
	})
}

func TestNormalizeName(t *testing.T) {
	Convey("Given names typed differently", t, func() {
		So(intake.NormalizeName("  Ana   Maria "), ShouldEqual, "Ana Maria")
		So(intake.NormalizeName("Ame\u0301lie"), ShouldEqual, "Am\u00e9lie")
	})
}

func TestTerms(t *testing.T) {
	Convey("Given a terms form export", t, func() {
		terms, err := intake.ReadTerms(strings.NewReader("Name,E-Mail\nAlice,alice@example.org\n Bob  Builder,BOB@example.org\n,nobody@example.org\n"))
		So(err, ShouldBeNil)
		So(terms.Len(), ShouldEqual, 2)

		Convey("Then names and e-mails both count as acceptance", func() {
			So(terms.Accepted("Alice", ""), ShouldBeTrue)
			So(terms.Accepted("Bob Builder", ""), ShouldBeTrue)
			So(terms.Accepted("Robert", "bob@example.org"), ShouldBeTrue)
			So(terms.Accepted("Nobody", "nobody@example.org"), ShouldBeTrue)
			So(terms.Accepted("Mallory", "mallory@example.org"), ShouldBeFalse)
			So(terms.Accepted("Mallory", ""), ShouldBeFalse)
		})
	})

	Convey("Given no terms form", t, func() {
		var terms *intake.Terms
		So(terms.Accepted("Anyone", ""), ShouldBeTrue)
	})

	Convey("Given an export without the e-mail column", t, func() {
		_, err := intake.ReadTerms(strings.NewReader("Name\nAlice\n"))
		So(errors.Is(err, intake.ErrMalformedTerms), ShouldBeTrue)
	})
}

func TestPrepare(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2020, 2, d, h, 0, 0, 0, time.UTC) }
	window := intake.Window{Opening: day(1, 16), Deadline: day(15, 16)}

	Convey("Given submissions around the window", t, func() {
		apps := []model.Applicant{
			{Identity: "Early", Username: "early", Submitted: day(1, 15)},
			{Identity: "Alice", Username: "alice", Submitted: day(1, 16), Requested: []int{1}},
			{Identity: "Bob", Username: "bob", Submitted: day(2, 10), Requested: []int{2}},
			{Identity: "Alice", Username: "alice", Submitted: day(3, 10), Requested: []int{3}},
			{Identity: "Robert", Username: "bob", Submitted: day(4, 10), Requested: []int{4}},
			{Identity: "Carol", Username: "carol", Submitted: day(14, 10), Requested: []int{5}},
			{Identity: "Alice", Username: "alice", Submitted: day(15, 16), Requested: []int{6}},
		}
		terms, err := intake.ReadTerms(strings.NewReader("Name,E-Mail\nAlice,\nRobert,\n"))
		So(err, ShouldBeNil)

		kept, rep := intake.Prepare(context.Background(), apps, terms, window)

		Convey("Then the last in-window submission per name and username survives", func() {
			So(kept, ShouldHaveLength, 3)
			So(kept[0].Identity, ShouldEqual, "Alice")
			So(kept[0].Requested, ShouldResemble, []int{3})
			So(kept[1].Identity, ShouldEqual, "Robert")
			So(kept[2].Identity, ShouldEqual, "Carol")
		})

		Convey("Then eligibility follows the terms form", func() {
			So(kept[0].Eligible, ShouldBeTrue)
			So(kept[1].Eligible, ShouldBeTrue)
			So(kept[2].Eligible, ShouldBeFalse)
		})

		Convey("Then the report adds up", func() {
			So(rep, ShouldResemble, intake.Report{Read: 7, Early: 1, Late: 1, Duplicates: 2, Ineligible: 1, Accepted: 2})
		})
	})
}

func TestDefaults(t *testing.T) {
	Convey("Given a Tuesday afternoon in February 2020", t, func() {
		now := time.Date(2020, 2, 11, 14, 30, 0, 0, time.UTC)

		So(intake.DefaultLotteryID(now), ShouldEqual, "2020-W07")
		So(intake.DefaultDeadline(now, 16), ShouldEqual, time.Date(2020, 2, 11, 16, 0, 0, 0, time.UTC))

		w := intake.DefaultWindow(now, 16, 14*24*time.Hour)
		So(w.Opening, ShouldEqual, time.Date(2020, 1, 28, 16, 0, 0, 0, time.UTC))
		So(w.Contains(w.Opening), ShouldBeTrue)
		So(w.Contains(w.Deadline), ShouldBeFalse)
		So(intake.Window{}.Contains(now), ShouldBeTrue)
	})

	Convey("Given a date whose ISO week belongs to the next year", t, func() {
		So(intake.DefaultLotteryID(time.Date(2019, 12, 30, 0, 0, 0, 0, time.UTC)), ShouldEqual, "2020-W01")
	})
}
