// Package summary computes per-channel statistics of a point cloud.
package summary

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pglira/cloudcompare-sbf-io/internal/sbf"
)

// Channel holds statistics over the finite values of one row.
type Channel struct {
	Name   string  `json:"name"`
	Finite int     `json:"finite"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Bounds is an axis-aligned box.
type Bounds struct {
	Min sbf.Vec3 `json:"min"`
	Max sbf.Vec3 `json:"max"`
}

// Summary describes a whole cloud.
type Summary struct {
	Points      int       `json:"points"`
	GlobalShift sbf.Vec3  `json:"global_shift"`
	Channels    []Channel `json:"channels"`
	// World is the coordinate bounding box with the global shift applied.
	World Bounds `json:"world"`
}

var coordinateNames = [sbf.CoordinateChannels]string{"X", "Y", "Z"}

// ChannelName returns the display name of row ch: X, Y, Z, then the
// matching entry of names, falling back to SF<n>.
func ChannelName(ch int, names []string) string {
	if ch < sbf.CoordinateChannels {
		return coordinateNames[ch]
	}
	if i := ch - sbf.CoordinateChannels; i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("SF%d", ch-sbf.CoordinateChannels+1)
}

// Summarize computes statistics for every channel of cloud. Non-finite
// values are skipped; a channel without finite values reports zeros.
func Summarize(cloud *sbf.PointCloud, names []string, shift sbf.Vec3) Summary {
	s := Summary{
		Points:      cloud.Points(),
		GlobalShift: shift,
		Channels:    make([]Channel, cloud.Channels()),
	}
	m := cloud.Dense()
	for ch := range s.Channels {
		var row []float64
		if m != nil {
			row = mat.Row(nil, ch, m)
		}
		s.Channels[ch] = channelStats(ChannelName(ch, names), row)
	}
	for i := 0; i < sbf.CoordinateChannels && i < len(s.Channels); i++ {
		if s.Channels[i].Finite == 0 {
			continue
		}
		s.World.Min[i] = s.Channels[i].Min + shift[i]
		s.World.Max[i] = s.Channels[i].Max + shift[i]
	}
	return s
}

func channelStats(name string, values []float64) Channel {
	finite := values[:0]
	for _, f := range values {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		finite = append(finite, f)
	}

	c := Channel{Name: name, Finite: len(finite)}
	if len(finite) == 0 {
		return c
	}
	c.Min = floats.Min(finite)
	c.Max = floats.Max(finite)
	if len(finite) == 1 {
		c.Mean = finite[0]
		return c
	}
	c.Mean, c.StdDev = stat.MeanStdDev(finite, nil)
	return c
}
