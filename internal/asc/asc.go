// Package asc exports point clouds as CloudCompare-compatible ASCII (.asc)
// files: two comment lines followed by one whitespace separated row per
// point.
package asc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pglira/cloudcompare-sbf-io/internal/fsutil"
	"github.com/pglira/cloudcompare-sbf-io/internal/monitoring"
	"github.com/pglira/cloudcompare-sbf-io/internal/sbf"
	"github.com/pglira/cloudcompare-sbf-io/internal/summary"
)

// DefaultPrecision is the number of decimals written per value.
const DefaultPrecision = 6

// Options controls the export.
type Options struct {
	// ApplyShift writes world coordinates (stored + global shift) instead
	// of the stored single precision values.
	ApplyShift bool
	// Precision is the number of decimals per value.
	Precision int
}

// DefaultOptions returns Options with DefaultPrecision and no shift.
func DefaultOptions() Options {
	return Options{Precision: DefaultPrecision}
}

func checkCloud(cloud *sbf.PointCloud, names []string, opts Options) error {
	if cloud == nil || cloud.Points() == 0 {
		return fmt.Errorf("no points to export")
	}
	if cloud.Channels() < sbf.CoordinateChannels {
		return fmt.Errorf("cloud has %d channels, need at least %d", cloud.Channels(), sbf.CoordinateChannels)
	}
	if len(names) != cloud.ScalarFieldCount() {
		return fmt.Errorf("got %d scalar field names for %d scalar fields", len(names), cloud.ScalarFieldCount())
	}
	if opts.Precision < 0 {
		return fmt.Errorf("negative precision %d", opts.Precision)
	}
	return nil
}

// Write streams cloud to w.
func Write(w io.Writer, cloud *sbf.PointCloud, names []string, shift sbf.Vec3, opts Options) error {
	if err := checkCloud(cloud, names, opts); err != nil {
		return err
	}

	columns := make([]string, cloud.Channels())
	for ch := range columns {
		// Spaces would split a column name in the format line.
		columns[ch] = strings.ReplaceAll(summary.ChannelName(ch, names), " ", "_")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Exported points\n")
	fmt.Fprintf(bw, "# Format: %s\n", strings.Join(columns, " "))

	var line []byte
	for i := 0; i < cloud.Points(); i++ {
		line = line[:0]
		for ch, v := range cloud.Point(i) {
			if ch > 0 {
				line = append(line, ' ')
			}
			f := float64(v)
			if opts.ApplyShift && ch < sbf.CoordinateChannels {
				f += shift[ch]
			}
			line = strconv.AppendFloat(line, f, 'f', opts.Precision, 64)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("write asc: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write asc: %w", err)
	}
	return nil
}

// ExportFile writes cloud to path through fsys. The file only appears once
// it has been written completely.
func ExportFile(fsys fsutil.FileSystem, path string, cloud *sbf.PointCloud, names []string, shift sbf.Vec3, opts Options) error {
	if err := checkCloud(cloud, names, opts); err != nil {
		return err
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, cloud, names, shift, opts); err != nil {
		f.Discard()
		return err
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}

	monitoring.Logf("Exported %d points to %s", cloud.Points(), path)
	return nil
}
