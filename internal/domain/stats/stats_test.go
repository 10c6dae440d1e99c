package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDescribe(t *testing.T) {
	Convey("Given the scores 2, 4, 4, 4, 5, 5, 7, 9", t, func() {
		values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
		d, err := stats.Describe(values)

		Convey("Then mean and population deviation are exact", func() {
			So(err, ShouldBeNil)
			So(d.Count, ShouldEqual, 8)
			So(d.Mean, ShouldEqual, 5.0)
			So(d.Variance, ShouldEqual, 4.0)
			So(d.StdDev, ShouldEqual, 2.0)
		})

		Convey("Then the reporting fields are filled", func() {
			So(d.Min, ShouldEqual, 2.0)
			So(d.Max, ShouldEqual, 9.0)
			So(d.Median, ShouldEqual, 4.5)
			// m3 = 42/8, m2^1.5 = 8
			So(d.Skewness, ShouldAlmostEqual, 0.65625, 1e-12)
		})

		Convey("Then the input is left untouched", func() {
			So(values, ShouldResemble, []float64{2, 4, 4, 4, 5, 5, 7, 9})
		})
	})

	Convey("Given a symmetric set", t, func() {
		d, err := stats.Describe([]float64{1, 2, 3})
		So(err, ShouldBeNil)
		So(d.Skewness, ShouldAlmostEqual, 0, 1e-12)
		So(d.Median, ShouldEqual, 2.0)
	})

	Convey("Given identical scores", t, func() {
		d, err := stats.Describe([]float64{70, 70, 70})

		Convey("Then the spread is zero and z-scores are zero", func() {
			So(err, ShouldBeNil)
			So(d.StdDev, ShouldEqual, 0.0)
			So(d.Skewness, ShouldEqual, 0.0)
			So(d.ZScore(70), ShouldEqual, 0.0)
		})
	})

	Convey("Given no scores", t, func() {
		_, err := stats.Describe(nil)

		Convey("Then ErrEmptyInput is returned", func() {
			So(errors.Is(err, stats.ErrEmptyInput), ShouldBeTrue)
		})
	})
}

func TestOf(t *testing.T) {
	Convey("Given a score set whose rows were all excluded", t, func() {
		set, err := scoreset.FromRows([]scoreset.Row{{Index: 0, Raw: "x"}}, scoreset.ExcludeAndMark)
		So(err, ShouldBeNil)

		Convey("When statistics are computed", func() {
			_, err := stats.Of(set)

			Convey("Then the run fails before any policy runs", func() {
				So(errors.Is(err, stats.ErrEmptyInput), ShouldBeTrue)
			})
		})
	})

	Convey("Given a populated set", t, func() {
		set, err := scoreset.FromValues([]float64{60, 80})
		So(err, ShouldBeNil)
		d, err := stats.Of(set)
		So(err, ShouldBeNil)
		So(d.Mean, ShouldEqual, 70.0)
		So(d.StdDev, ShouldEqual, 10.0)
		So(d.ZScore(95), ShouldEqual, 2.5)
		So(math.IsNaN(d.ZScore(50)), ShouldBeFalse)
	})
}
