package asc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pglira/cloudcompare-sbf-io/internal/fsutil"
	"github.com/pglira/cloudcompare-sbf-io/internal/monitoring"
	"github.com/pglira/cloudcompare-sbf-io/internal/sbf"
)

func testCloud(t *testing.T) *sbf.PointCloud {
	t.Helper()
	cloud, err := sbf.FromRows([][]float32{
		{1.5, -2},
		{0.25, 3},
		{10, 0},
		{7, 8},
	})
	require.NoError(t, err)
	return cloud
}

func TestWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opts  Options
		shift sbf.Vec3
		want  string
	}{
		{
			name:  "stored coordinates",
			opts:  Options{Precision: 2},
			shift: sbf.Vec3{100, 200, 300},
			want: "# Exported points\n# Format: X Y Z Return_Number\n" +
				"1.50 0.25 10.00 7.00\n" +
				"-2.00 3.00 0.00 8.00\n",
		},
		{
			name:  "world coordinates",
			opts:  Options{Precision: 1, ApplyShift: true},
			shift: sbf.Vec3{100, 200, 300},
			want: "# Exported points\n# Format: X Y Z Return_Number\n" +
				"101.5 200.2 310.0 7.0\n" +
				"98.0 203.0 300.0 8.0\n",
		},
		{
			name: "default precision",
			opts: DefaultOptions(),
			want: "# Exported points\n# Format: X Y Z Return_Number\n" +
				"1.500000 0.250000 10.000000 7.000000\n" +
				"-2.000000 3.000000 0.000000 8.000000\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, testCloud(t), []string{"Return Number"}, tt.shift, tt.opts))
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("asc mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteRejects(t *testing.T) {
	t.Parallel()

	empty, err := sbf.NewPointCloud(3, 0)
	require.NoError(t, err)
	flat, err := sbf.NewPointCloud(2, 1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		cloud *sbf.PointCloud
		names []string
		opts  Options
		want  string
	}{
		{"empty", empty, nil, DefaultOptions(), "no points"},
		{"nil", nil, nil, DefaultOptions(), "no points"},
		{"two channels", flat, nil, DefaultOptions(), "channels"},
		{"missing names", testCloud(t), nil, DefaultOptions(), "names"},
		{"negative precision", testCloud(t), []string{"a"}, Options{Precision: -1}, "precision"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, tt.cloud, tt.names, sbf.Vec3{}, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, buf.Len())
		})
	}
}

// Captures the package logger, so it must not run in parallel.
func TestExportFile(t *testing.T) {
	rec, restore := monitoring.Capture()
	defer restore()

	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, ExportFile(mem, "/out/c.asc", testCloud(t), []string{"i"}, sbf.Vec3{}, DefaultOptions()))

	data, err := mem.ReadFile("/out/c.asc")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "# Format: X Y Z i", lines[1])
	assert.Equal(t, []string{"Exported 2 points to /out/c.asc"}, rec.Lines())
}

func TestExportFileFailures(t *testing.T) {
	t.Parallel()

	mem := fsutil.NewMemoryFileSystem()
	empty, err := sbf.NewPointCloud(3, 0)
	require.NoError(t, err)
	require.Error(t, ExportFile(mem, "/out/e.asc", empty, nil, sbf.Vec3{}, DefaultOptions()))

	boom := errors.New("read-only")
	mem.FailCommit("/out/c.asc", boom)
	err = ExportFile(mem, "/out/c.asc", testCloud(t), []string{"i"}, sbf.Vec3{}, DefaultOptions())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, mem.Names())
}
