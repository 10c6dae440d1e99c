// Package sample generates synthetic score tables for trying out grading
// policies.
package sample

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/gradecurve/pkg/logger"
)

// performer groups for ProfileMixed, as offsets from the mean in standard
// deviations and a relative weight.
var performers = []struct {
	name   string
	center float64
	spread float64
	weight int
}{
	{"average", 0, 0.6, 4},
	{"high", 1.2, 0.4, 1},
	{"low", -1.3, 0.5, 1},
	{"elite", 2.2, 0.2, 1},
	{"struggling", -2.6, 0.4, 1},
}

// Generate returns opts.N records with unique UUID student IDs. Scores are
// clamped to [Min, Max] and rounded to one decimal. The same non-zero seed
// always yields the same table.
func Generate(ctx context.Context, opts Options) ([]Record, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sample data

	total := 0
	for _, p := range performers {
		total += p.weight
	}

	out := make([]Record, opts.N)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate sample: %w", err)
		}
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("generate id %d: %w", i, err)
		}

		z := rng.NormFloat64()
		if opts.Profile == ProfileMixed {
			z = mixed(rng, total)
		}
		v := opts.Mean + z*opts.StdDev
		v = math.Max(opts.Min, math.Min(opts.Max, v))
		out[i] = Record{ID: id.String(), Score: math.Round(v*10) / 10}
	}

	logger.Get().Debug(ctx, "generated sample scores",
		logger.Int("n", opts.N),
		logger.String("profile", string(opts.Profile)),
		logger.Any("seed", seed))
	return out, nil
}

func mixed(rng *rand.Rand, total int) float64 {
	pick := rng.Intn(total)
	for _, p := range performers {
		if pick < p.weight {
			return p.center + rng.NormFloat64()*p.spread
		}
		pick -= p.weight
	}
	return rng.NormFloat64()
}

// WriteCSV writes records as a StudentID,Score table.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"StudentID", "Score"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.ID, strconv.FormatFloat(r.Score, 'f', 1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
