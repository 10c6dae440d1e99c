package report_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/gradecurve/internal/domain/assignment"
	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
	"github.com/okian/gradecurve/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

func run(p policy.Policy, rows []scoreset.Row, opts ...report.Option) *report.Report {
	set, err := scoreset.FromRows(rows, scoreset.ExcludeAndMark)
	So(err, ShouldBeNil)
	d, err := stats.Of(set)
	So(err, ShouldBeNil)
	gs, err := p.Assign(set.Scores(), d)
	So(err, ShouldBeNil)
	a, err := assignment.Build(set, gs)
	So(err, ShouldBeNil)
	return report.New("class.csv", p, d, a, summary.Build(a), opts...)
}

func TestNew(t *testing.T) {
	rows := []scoreset.Row{
		{Index: 0, ID: "ana", Raw: "60"},
		{Index: 1, ID: "ben", Raw: ""},
		{Index: 2, ID: "cy", Raw: "80"},
	}

	Convey("Given a formula run with standardization", t, func() {
		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
		r := run(&policy.Formula{DFloorSigma: 2.5}, rows,
			report.WithStandardized(true), report.WithClock(func() time.Time { return at }))

		Convey("Then the snapshot carries identity and policy", func() {
			_, err := uuid.Parse(r.RunID)
			So(err, ShouldBeNil)
			So(r.Source, ShouldEqual, "class.csv")
			So(r.Policy.Kind, ShouldEqual, policy.KindRelativeFormula)
			So(r.CreatedAt.Equal(at), ShouldBeTrue)
			So(r.HasIDs(), ShouldBeTrue)
		})

		Convey("Then graded rows carry z-scores and excluded rows do not", func() {
			So(r.Rows, ShouldHaveLength, 3)
			So(*r.Rows[0].Standardized, ShouldEqual, -1)
			So(r.Rows[1].Standardized, ShouldBeNil)
			So(r.Rows[1].Grade, ShouldEqual, grade.NotGraded)
			So(*r.Rows[2].Standardized, ShouldEqual, 1)
		})

		Convey("Then the formula bands are attached", func() {
			So(r.Bands, ShouldHaveLength, 10)
			So(r.Bands[0].Grade, ShouldEqual, grade.A)
		})

		Convey("Then the listing view summarises it", func() {
			m := r.Meta()
			So(m.RunID, ShouldEqual, r.RunID)
			So(m.Graded, ShouldEqual, 2)
			So(m.Ungraded, ShouldEqual, 1)
		})
	})

	Convey("Given an absolute run with a fixed id", t, func() {
		p, err := policy.NewAbsolute(policy.DefaultThresholds()...)
		So(err, ShouldBeNil)
		r := run(p, rows, report.WithRunID("fixed"))

		Convey("Then no bands or z-scores are attached", func() {
			So(r.RunID, ShouldEqual, "fixed")
			So(r.Bands, ShouldBeNil)
			So(r.Standardized, ShouldBeFalse)
			So(r.Rows[0].Standardized, ShouldBeNil)
		})
	})
}
