// Package preview renders a top-down X/Y scatter of a point cloud, coloured
// by height, using gonum/plot.
package preview

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pglira/cloudcompare-sbf-io/internal/fsutil"
	"github.com/pglira/cloudcompare-sbf-io/internal/monitoring"
	"github.com/pglira/cloudcompare-sbf-io/internal/sbf"
)

// Options controls the rendered image.
type Options struct {
	Title       string
	WidthIn     float64 // inches
	HeightIn    float64 // inches
	PointRadius float64 // points
	// MaxPoints caps the plotted points; larger clouds are thinned with a
	// fixed stride. Zero means no cap.
	MaxPoints int
}

// DefaultOptions returns a 6x6 inch preview of at most 200k points.
func DefaultOptions() Options {
	return Options{
		WidthIn:     6,
		HeightIn:    6,
		PointRadius: 0.5,
		MaxPoints:   200000,
	}
}

// formats gonum/plot can encode, keyed by file extension.
var formats = map[string]string{
	".png":  "png",
	".svg":  "svg",
	".pdf":  "pdf",
	".jpg":  "jpg",
	".jpeg": "jpg",
	".tif":  "tiff",
	".tiff": "tiff",
	".eps":  "eps",
}

// FormatFor returns the image format for a file name.
func FormatFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formats[ext]
	if !ok {
		return "", fmt.Errorf("unsupported preview format %q", ext)
	}
	return f, nil
}

// Plot builds the scatter plot. Coordinates are world coordinates, so the
// shift is added to every stored X and Y.
func Plot(cloud *sbf.PointCloud, shift sbf.Vec3, opts Options) (*plot.Plot, error) {
	if cloud == nil || cloud.Points() == 0 {
		return nil, fmt.Errorf("no points to plot")
	}
	if cloud.Channels() < sbf.CoordinateChannels {
		return nil, fmt.Errorf("cloud has %d channels, need at least %d", cloud.Channels(), sbf.CoordinateChannels)
	}
	if opts.PointRadius <= 0 {
		return nil, fmt.Errorf("point radius must be positive, got %f", opts.PointRadius)
	}

	stride := 1
	if opts.MaxPoints > 0 && cloud.Points() > opts.MaxPoints {
		stride = (cloud.Points() + opts.MaxPoints - 1) / opts.MaxPoints
	}

	xys := make(plotter.XYs, 0, cloud.Points()/stride+1)
	heights := make([]float64, 0, cap(xys))
	zMin, zMax := math.Inf(1), math.Inf(-1)
	for i := 0; i < cloud.Points(); i += stride {
		x, y, z := shift.Apply(cloud.XYZ(i))
		if !finite(x) || !finite(y) {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
		heights = append(heights, z)
		if finite(z) {
			zMin = math.Min(zMin, z)
			zMax = math.Max(zMax, z)
		}
	}
	if len(xys) == 0 {
		return nil, fmt.Errorf("no finite points to plot")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	radius := vg.Points(opts.PointRadius)
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  heightColor(heights[i], zMin, zMax),
			Radius: radius,
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)
	return p, nil
}

// Render encodes the preview in the given format ("png", "svg", ...) to w.
func Render(w io.Writer, format string, cloud *sbf.PointCloud, shift sbf.Vec3, opts Options) error {
	if opts.WidthIn <= 0 || opts.HeightIn <= 0 {
		return fmt.Errorf("image size must be positive, got %fx%f in", opts.WidthIn, opts.HeightIn)
	}
	p, err := Plot(cloud, shift, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// SaveFile renders the preview to path through fsys, choosing the format
// from the file extension.
func SaveFile(fsys fsutil.FileSystem, path string, cloud *sbf.PointCloud, shift sbf.Vec3, opts Options) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Render(f, format, cloud, shift, opts); err != nil {
		f.Discard()
		return err
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	monitoring.Logf("Rendered preview of %d points to %s", cloud.Points(), path)
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// heightColor maps z onto a blue (low) to red (high) hue ramp. Flat clouds
// and non-finite heights are drawn grey.
func heightColor(z, zMin, zMax float64) color.Color {
	if !finite(z) || !(zMax > zMin) {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	t := (z - zMin) / (zMax - zMin)
	r, g, b := hslToRGB((1-t)*2.0/3.0, 0.8, 0.5)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL (all in [0, 1]) to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
