package sbf

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// CoordinateChannels is the number of leading channels holding X, Y and Z.
const CoordinateChannels = 3

// Vec3 is a double precision 3-vector, used for the global shift.
type Vec3 [3]float64

// Apply adds the shift to single precision stored coordinates, giving the
// original world coordinates.
func (v Vec3) Apply(x, y, z float32) (float64, float64, float64) {
	return float64(x) + v[0], float64(y) + v[1], float64(z) + v[2]
}

// MarshalJSON encodes v as a three element array. JSON numbers cannot hold
// NaN or infinities, so those components are written as the strings "NaN",
// "+Inf" and "-Inf".
func (v Vec3) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf = strconv.AppendQuote(buf, strconv.FormatFloat(f, 'g', -1, 64))
			continue
		}
		buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// PointCloud is a dense float32 matrix with one row per channel and one
// column per point. Rows 0-2 are X, Y and Z; later rows are scalar fields.
//
// Values are stored column-major, all channels of a point next to each
// other, which is also the payload order on disk.
type PointCloud struct {
	channels int
	points   int
	data     []float32
}

// NewPointCloud allocates a zeroed cloud.
func NewPointCloud(channels, points int) (*PointCloud, error) {
	if channels < 0 || points < 0 {
		return nil, newError(ErrInvalidArgument, "", "", "negative dimensions %dx%d", channels, points)
	}
	if channels > 0 && points > math.MaxInt/channels {
		return nil, newError(ErrInvalidArgument, "", "", "dimensions %dx%d overflow", channels, points)
	}
	return &PointCloud{
		channels: channels,
		points:   points,
		data:     make([]float32, channels*points),
	}, nil
}

// FromRows builds a cloud from per-channel rows. All rows must have the same
// length, which becomes the point count.
func FromRows(rows [][]float32) (*PointCloud, error) {
	points := 0
	if len(rows) > 0 {
		points = len(rows[0])
	}
	for i, row := range rows {
		if len(row) != points {
			return nil, newError(ErrInvalidArgument, "", "", "row %d has %d values, want %d", i, len(row), points)
		}
	}

	pc, err := NewPointCloud(len(rows), points)
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		for c, v := range row {
			pc.data[c*pc.channels+r] = v
		}
	}
	return pc, nil
}

// Channels returns the row count.
func (p *PointCloud) Channels() int { return p.channels }

// Points returns the column count.
func (p *PointCloud) Points() int { return p.points }

// ScalarFieldCount returns the number of channels after X, Y and Z.
func (p *PointCloud) ScalarFieldCount() int { return p.channels - CoordinateChannels }

// Data returns the backing column-major slice. It is shared, not copied.
func (p *PointCloud) Data() []float32 { return p.data }

// At returns the value of channel ch for point i. It panics when out of range.
func (p *PointCloud) At(ch, i int) float32 {
	p.check(ch, i)
	return p.data[i*p.channels+ch]
}

// Set stores v as channel ch of point i. It panics when out of range.
func (p *PointCloud) Set(ch, i int, v float32) {
	p.check(ch, i)
	p.data[i*p.channels+ch] = v
}

func (p *PointCloud) check(ch, i int) {
	if ch < 0 || ch >= p.channels || i < 0 || i >= p.points {
		panic(fmt.Sprintf("sbf: index (%d, %d) out of range for %dx%d cloud", ch, i, p.channels, p.points))
	}
}

// XYZ returns the stored coordinates of point i.
func (p *PointCloud) XYZ(i int) (x, y, z float32) {
	return p.At(0, i), p.At(1, i), p.At(2, i)
}

// Point returns a copy of all channels of point i.
func (p *PointCloud) Point(i int) []float32 {
	p.check(0, i)
	out := make([]float32, p.channels)
	copy(out, p.data[i*p.channels:(i+1)*p.channels])
	return out
}

// Dense copies the cloud into a float64 gonum matrix (rows = channels).
// gonum cannot represent zero-sized matrices, so an empty cloud yields nil.
func (p *PointCloud) Dense() *mat.Dense {
	if p.channels == 0 || p.points == 0 {
		return nil
	}
	m := mat.NewDense(p.channels, p.points, nil)
	for i := 0; i < p.points; i++ {
		for ch := 0; ch < p.channels; ch++ {
			m.Set(ch, i, float64(p.data[i*p.channels+ch]))
		}
	}
	return m
}

// Equal reports whether both clouds have the same shape and bitwise equal
// values, so NaN payloads compare equal to themselves.
func (p *PointCloud) Equal(o *PointCloud) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.channels != o.channels || p.points != o.points {
		return false
	}
	for i, v := range p.data {
		if math.Float32bits(v) != math.Float32bits(o.data[i]) {
			return false
		}
	}
	return true
}
