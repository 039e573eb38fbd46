// Package synth generates reproducible synthetic point clouds for fixtures
// and demos.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pglira/cloudcompare-sbf-io/internal/sbf"
)

// Field names with a generated meaning. Any other name is filled with
// uniform noise in [0, 1).
const (
	FieldIntensity      = "intensity"
	FieldClassification = "classification"
	FieldRange          = "range"
)

// Classification values, as used by LAS.
const (
	ClassUnclassified = 1
	ClassGround       = 2
)

// Generator produces a disc of ground points with some raised object
// points scattered over it.
type Generator struct {
	PointCount     int      // points per cloud
	AreaRadius     float64  // metres, radius of the disc
	ObjectFraction float64  // share of points above ground, 0-1
	ObjectHeight   float64  // metres, tallest object point
	Fields         []string // scalar fields to generate, in order

	rng *rand.Rand
}

// NewGenerator creates a generator whose output depends only on seed and
// the exported settings.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		PointCount:     1000,
		AreaRadius:     50.0,
		ObjectFraction: 0.1,
		ObjectHeight:   2.0,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// Cloud generates the next cloud.
func (g *Generator) Cloud() (*sbf.PointCloud, error) {
	if g.PointCount < 0 {
		return nil, fmt.Errorf("negative point count %d", g.PointCount)
	}
	if g.ObjectFraction < 0 || g.ObjectFraction > 1 {
		return nil, fmt.Errorf("object fraction must be between 0 and 1, got %f", g.ObjectFraction)
	}

	pc, err := sbf.NewPointCloud(sbf.CoordinateChannels+len(g.Fields), g.PointCount)
	if err != nil {
		return nil, err
	}

	for i := 0; i < g.PointCount; i++ {
		// Uniform disc distribution
		angle := g.rng.Float64() * 2 * math.Pi
		r := math.Sqrt(g.rng.Float64()) * g.AreaRadius
		x := r * math.Cos(angle)
		y := r * math.Sin(angle)

		var z float64
		class := ClassGround
		if g.rng.Float64() < g.ObjectFraction {
			z = g.rng.Float64() * g.ObjectHeight
			class = ClassUnclassified
		} else {
			z = g.rng.Float64()*0.2 - 0.1 // -0.1 to 0.1m
		}

		pc.Set(0, i, float32(x))
		pc.Set(1, i, float32(y))
		pc.Set(2, i, float32(z))

		for f, name := range g.Fields {
			pc.Set(sbf.CoordinateChannels+f, i, g.field(name, r, z, class))
		}
	}
	return pc, nil
}

func (g *Generator) field(name string, r, z float64, class int) float32 {
	switch name {
	case FieldIntensity:
		// Closer is brighter.
		intensity := 200 - int(r*3)
		if intensity < 50 {
			intensity = 50
		}
		return float32(intensity + g.rng.Intn(30))
	case FieldClassification:
		return float32(class)
	case FieldRange:
		return float32(math.Hypot(r, z))
	default:
		return g.rng.Float32()
	}
}
