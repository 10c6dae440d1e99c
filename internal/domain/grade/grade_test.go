package grade_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/okian/gradecurve/internal/domain/grade"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCanonicalOrder(t *testing.T) {
	Convey("Given the canonical grade order", t, func() {
		order := grade.Canonical()

		Convey("Then it runs from A+ to F", func() {
			So(len(order), ShouldEqual, 13)
			So(order[0], ShouldEqual, grade.APlus)
			So(order[len(order)-1], ShouldEqual, grade.F)
		})

		Convey("Then ranks follow positions", func() {
			for i, g := range order {
				So(g.Rank(), ShouldEqual, i)
				So(g.Valid(), ShouldBeTrue)
			}
		})

		Convey("Then callers cannot mutate it", func() {
			order[0] = grade.F
			So(grade.Canonical()[0], ShouldEqual, grade.APlus)
		})

		Convey("Then NotGraded sorts after F and is not valid", func() {
			So(grade.NotGraded.Valid(), ShouldBeFalse)
			So(grade.Less(grade.F, grade.NotGraded), ShouldBeTrue)
			So(grade.Grade("Z").Rank(), ShouldEqual, -1)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given grade labels", t, func() {
		Convey("When they are canonical", func() {
			g, err := grade.Parse(" b+ ")
			So(err, ShouldBeNil)
			So(g, ShouldEqual, grade.BPlus)
		})

		Convey("When the sentinel is parsed", func() {
			g, err := grade.Parse("n/a")
			So(err, ShouldBeNil)
			So(g, ShouldEqual, grade.NotGraded)
		})

		Convey("When the label is unknown", func() {
			_, err := grade.Parse("E")
			So(errors.Is(err, grade.ErrUnknownGrade), ShouldBeTrue)
		})
	})
}

func TestLessSorts(t *testing.T) {
	Convey("Given shuffled grades", t, func() {
		gs := []grade.Grade{grade.F, grade.NotGraded, grade.B, grade.APlus, grade.CMinus}

		Convey("When sorted with Less", func() {
			sort.Slice(gs, func(i, j int) bool { return grade.Less(gs[i], gs[j]) })

			Convey("Then they are best first", func() {
				So(gs, ShouldResemble, []grade.Grade{grade.APlus, grade.B, grade.CMinus, grade.F, grade.NotGraded})
			})
		})
	})
}
