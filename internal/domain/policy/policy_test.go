package policy_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func scores(vs ...float64) []scoreset.Score {
	out := make([]scoreset.Score, len(vs))
	for i, v := range vs {
		out[i] = scoreset.Score{Index: i, Value: v}
	}
	return out
}

func TestParseKind(t *testing.T) {
	Convey("Given policy names", t, func() {
		k, err := policy.ParseKind("Absolute")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, policy.KindAbsolute)

		k, err = policy.ParseKind("percentile")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, policy.KindRelativePercentile)

		_, err = policy.ParseKind("curve")
		So(errors.Is(err, policy.ErrUnknownKind), ShouldBeTrue)
		So(policy.Kinds(), ShouldHaveLength, 3)
	})
}

func TestAbsolute(t *testing.T) {
	Convey("Given the default absolute thresholds", t, func() {
		p, err := policy.NewAbsolute(policy.DefaultThresholds()...)
		So(err, ShouldBeNil)

		Convey("When a score sits exactly on a threshold", func() {
			gs, err := p.Assign(scores(90, 89.99, 80, 0), stats.Descriptive{})

			Convey("Then the inclusive lower bound applies", func() {
				So(err, ShouldBeNil)
				So(gs, ShouldResemble, []grade.Grade{grade.A, grade.AMinus, grade.AMinus, grade.F})
			})
		})

		Convey("When a score is below the lowest threshold", func() {
			gs, err := p.Assign(scores(95, -1), stats.Descriptive{})

			Convey("Then no partial output is returned and the row is named", func() {
				So(gs, ShouldBeNil)
				So(errors.Is(err, policy.ErrNoMatchingThreshold), ShouldBeTrue)
				var rowErr *policy.RowError
				So(errors.As(err, &rowErr), ShouldBeTrue)
				So(rowErr.Index, ShouldEqual, 1)
			})
		})

		Convey("Then every result has the input cardinality", func() {
			in := scores(12, 55, 71, 99, 60, 83)
			gs, err := p.Assign(in, stats.Descriptive{})
			So(err, ShouldBeNil)
			So(len(gs), ShouldEqual, len(in))
		})
	})

	Convey("Given thresholds out of order", t, func() {
		Convey("When they are ascending", func() {
			_, err := policy.NewAbsolute(
				policy.Threshold{Grade: grade.A, Min: 50},
				policy.Threshold{Grade: grade.B, Min: 90},
			)
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
		})

		Convey("When grades are out of canonical order", func() {
			_, err := policy.NewAbsolute(
				policy.Threshold{Grade: grade.B, Min: 90},
				policy.Threshold{Grade: grade.A, Min: 80},
			)
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
			var pe *policy.ParamError
			So(errors.As(err, &pe), ShouldBeTrue)
			So(pe.Param, ShouldEqual, "thresholds[1].grade")
		})

		Convey("When a grade repeats", func() {
			_, err := policy.NewAbsolute(
				policy.Threshold{Grade: grade.A, Min: 90},
				policy.Threshold{Grade: grade.A, Min: 80},
			)
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
		})

		Convey("When the list is empty", func() {
			_, err := policy.NewAbsolute()
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
		})

		Convey("When a threshold is not finite", func() {
			_, err := policy.NewAbsolute(policy.Threshold{Grade: grade.A, Min: math.NaN()})
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
		})
	})
}

func TestFormula(t *testing.T) {
	d := stats.Descriptive{Count: 2, Mean: 70, StdDev: 10}

	Convey("Given a formula policy with d = 2.5", t, func() {
		p := &policy.Formula{DFloorSigma: 2.5}
		So(p.Validate(), ShouldBeNil)

		Convey("When scores are spread around μ=70, σ=10", func() {
			gs, err := p.Assign(scores(95, 40, 47, 70, 85, 64.9), d)

			Convey("Then they land in the expected bands", func() {
				So(err, ShouldBeNil)
				So(gs, ShouldResemble, []grade.Grade{
					grade.A, grade.F, grade.D, grade.B, grade.A, grade.BMinus,
				})
			})
		})

		Convey("When the bands are listed", func() {
			bands := p.Bands(d)

			Convey("Then they partition the real line without gaps or overlaps", func() {
				So(bands, ShouldHaveLength, 10)
				So(math.IsInf(bands[0].Upper, 1), ShouldBeTrue)
				So(math.IsInf(bands[len(bands)-1].Lower, -1), ShouldBeTrue)
				for i := 1; i < len(bands); i++ {
					So(bands[i].Upper, ShouldEqual, bands[i-1].Lower)
					So(bands[i].Lower, ShouldBeLessThan, bands[i].Upper)
				}
			})

			Convey("Then every probe falls in exactly one band", func() {
				for x := -100.0; x <= 200; x += 0.5 {
					hits := 0
					for _, b := range bands {
						if b.Contains(x) {
							hits++
						}
					}
					So(hits, ShouldEqual, 1)
				}
			})

			Convey("Then infinite bounds encode as null and decode back", func() {
				raw, err := json.Marshal(bands[0])
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `{"grade":"A","lower":85,"upper":null}`)

				var back policy.Band
				So(json.Unmarshal(raw, &back), ShouldBeNil)
				So(back.Lower, ShouldEqual, 85)
				So(math.IsInf(back.Upper, 1), ShouldBeTrue)
			})
		})

		Convey("When every score is equal", func() {
			gs, err := p.Assign(scores(50, 50, 50), stats.Descriptive{Count: 3, Mean: 50})

			Convey("Then every row gets B", func() {
				So(err, ShouldBeNil)
				So(gs, ShouldResemble, []grade.Grade{grade.B, grade.B, grade.B})
			})
		})
	})

	Convey("Given an invalid D floor", t, func() {
		Convey("When it is left unset", func() {
			err := (&policy.Formula{}).Validate()
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "explicitly")
		})

		Convey("When it does not lie below C-", func() {
			_, err := policy.Spec{Kind: policy.KindRelativeFormula, DFloorSigma: 1.5}.Build()
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
		})

		Convey("When it is infinite", func() {
			err := (&policy.Formula{DFloorSigma: math.Inf(1)}).Validate()
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
		})
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given the default quotas", t, func() {
		p, err := policy.NewPercentile(policy.DefaultQuotas()...)
		So(err, ShouldBeNil)

		Convey("When 100 rows are sized", func() {
			Convey("Then each grade receives its exact share", func() {
				So(p.Sizes(100), ShouldResemble, []int{20, 30, 30, 15, 5})
			})
		})

		Convey("When the population does not divide evenly", func() {
			sizes := p.Sizes(7)

			Convey("Then shares round up and the last grade absorbs the rest", func() {
				So(sizes, ShouldResemble, []int{2, 3, 2, 0, 0})
				total := 0
				for _, s := range sizes {
					total += s
				}
				So(total, ShouldEqual, 7)
			})
		})

		Convey("When 100 distinct scores are graded", func() {
			vs := make([]float64, 100)
			for i := range vs {
				vs[i] = float64(i)
			}
			gs, err := p.Assign(scores(vs...), stats.Descriptive{})

			Convey("Then the best scores get the best grades", func() {
				So(err, ShouldBeNil)
				So(gs[99], ShouldEqual, grade.A)
				So(gs[80], ShouldEqual, grade.A)
				So(gs[79], ShouldEqual, grade.B)
				So(gs[0], ShouldEqual, grade.F)
				counts := map[grade.Grade]int{}
				for _, g := range gs {
					counts[g]++
				}
				So(counts[grade.A], ShouldEqual, 20)
				So(counts[grade.B], ShouldEqual, 30)
				So(counts[grade.C], ShouldEqual, 30)
				So(counts[grade.D], ShouldEqual, 15)
				So(counts[grade.F], ShouldEqual, 5)
			})
		})

		Convey("When equal scores straddle a cutoff", func() {
			q, err := policy.NewPercentile(
				policy.Quota{Grade: grade.A, Percent: 50},
				policy.Quota{Grade: grade.F, Percent: 50},
			)
			So(err, ShouldBeNil)
			gs, err := q.Assign(scores(10, 80, 80, 80), stats.Descriptive{})

			Convey("Then input order breaks the tie", func() {
				So(err, ShouldBeNil)
				So(gs, ShouldResemble, []grade.Grade{grade.F, grade.A, grade.A, grade.F})
			})
		})

		Convey("When there are no scores", func() {
			gs, err := p.Assign(nil, stats.Descriptive{})
			So(err, ShouldBeNil)
			So(gs, ShouldBeEmpty)
		})
	})

	Convey("Given quotas summing above 100%", t, func() {
		_, err := policy.NewPercentile(
			policy.Quota{Grade: grade.A, Percent: 60},
			policy.Quota{Grade: grade.F, Percent: 50},
		)

		Convey("Then construction fails with a quota overflow", func() {
			So(errors.Is(err, policy.ErrQuotaOverflow), ShouldBeTrue)
		})
	})

	Convey("Given quotas with fractional shares", t, func() {
		p, err := policy.NewPercentile(
			policy.Quota{Grade: grade.A, Percent: 0.3},
			policy.Quota{Grade: grade.F, Percent: 99.7},
		)
		So(err, ShouldBeNil)

		Convey("Then float noise does not inflate a share", func() {
			So(p.Sizes(10000), ShouldResemble, []int{30, 9970})
		})
	})

	Convey("Given a negative quota", t, func() {
		_, err := policy.NewPercentile(policy.Quota{Grade: grade.A, Percent: -1})
		So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
	})
}

func TestSpecBuild(t *testing.T) {
	Convey("Given serialized specs", t, func() {
		Convey("When an absolute spec is built", func() {
			p, err := policy.Spec{Kind: policy.KindAbsolute, Thresholds: policy.DefaultThresholds()}.Build()
			So(err, ShouldBeNil)
			So(p.Kind(), ShouldEqual, policy.KindAbsolute)
			So(p.Spec().Thresholds, ShouldResemble, policy.DefaultThresholds())
		})

		Convey("When a short kind name is used", func() {
			p, err := policy.Spec{Kind: "formula", DFloorSigma: 2.5}.Build()
			So(err, ShouldBeNil)
			So(p.Spec().Kind, ShouldEqual, policy.KindRelativeFormula)
		})

		Convey("When the kind is unknown", func() {
			_, err := policy.Spec{Kind: "bell"}.Build()
			So(errors.Is(err, policy.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("When only a kind is given", func() {
			s := policy.Spec{Kind: "percentile"}.WithDefaults()
			So(s.Kind, ShouldEqual, policy.KindRelativePercentile)
			So(s.Quotas, ShouldResemble, policy.DefaultQuotas())

			f := policy.Spec{Kind: "formula"}.WithDefaults()
			So(f.DFloorSigma, ShouldEqual, 0)
			_, err := f.Build()
			So(errors.Is(err, policy.ErrInvalidParameters), ShouldBeTrue)
		})
	})
}
