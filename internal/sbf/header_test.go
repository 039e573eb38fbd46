package sbf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		points int
		shift  Vec3
		names  []string
		want   string
	}{
		{
			name:   "no scalar fields",
			points: 0,
			want:   "[SBF]\nPoints=0\nGlobalShift=0, 0, 0\nSFCount=0\n",
		},
		{
			name:   "fields and shift",
			points: 5,
			shift:  Vec3{1234567.125, -0.5, 1e20},
			names:  []string{"intensity", "Return Number"},
			want: "[SBF]\nPoints=5\nGlobalShift=1234567.125, -0.5, 100000000000000000000\n" +
				"SFCount=2\nSF1=intensity\nSF2=Return Number\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeHeader(&buf, tt.points, tt.shift, tt.names))
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("header mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	shift := Vec3{0.1, -654321.987654321, 1e-9}
	names := []string{"a", "b b", "c"}
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, 42, shift, names))

	h, warnings, err := ParseHeader(&buf, "x.sbf")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	points, ok := h.Points()
	require.True(t, ok)
	assert.Equal(t, 42.0, points)
	sf, ok := h.SFCount()
	require.True(t, ok)
	assert.Equal(t, 3.0, sf)
	got, ok := h.GlobalShift()
	require.True(t, ok)
	assert.Equal(t, shift, got, "shift must survive formatting exactly")
	assert.Equal(t, names, h.ScalarFieldNames())
	assert.Equal(t, []string{KeyPoints, KeyGlobalShift, KeySFCount, "SF1", "SF2", "SF3"}, h.Keys())
}

func TestParseHeaderMarker(t *testing.T) {
	t.Parallel()

	accepted := []string{
		"[SBF]\nPoints=1\n",
		"[sbf]\nPoints=1\n",
		"  [Sbf]  \r\nPoints=1\r\n",
		"\ufeff[SBF]\nPoints=1",
		"[SBF]",
	}
	for _, in := range accepted {
		_, _, err := ParseHeader(strings.NewReader(in), "h.sbf")
		assert.NoError(t, err, "input %q", in)
	}

	rejected := []string{
		"",
		"\n[SBF]\n",
		"[SBF2]\n",
		"Points=1\n[SBF]\n",
		"SBF\n",
	}
	for _, in := range rejected {
		_, _, err := ParseHeader(strings.NewReader(in), "h.sbf")
		require.ErrorIs(t, err, ErrInvalidHeader, "input %q", in)
	}
}

func TestParseHeaderRecoversFromBadLines(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"[SBF]",
		"Points=5",
		"this line is garbage",
		"GlobalShift=1, 2, 3",
		"SFCount=abc",
		"SF1=intensity, s=0.5, p=3",
		"=orphan value",
		"",
		"GlobalShift=1, 2",
		"SF2=classification",
	}, "\n")

	h, warnings, err := ParseHeader(strings.NewReader(in), "h.sbf")
	require.NoError(t, err)

	var lines []int
	for _, w := range warnings {
		assert.Equal(t, "h.sbf", w.Path)
		lines = append(lines, w.Line)
	}
	assert.Equal(t, []int{3, 5, 7, 9}, lines, "one warning per bad line")

	points, ok := h.Points()
	require.True(t, ok)
	assert.Equal(t, 5.0, points)

	shift, ok := h.GlobalShift()
	require.True(t, ok)
	assert.Equal(t, Vec3{1, 2, 3}, shift, "a bad repeat does not replace a good value")

	_, ok = h.SFCount()
	assert.False(t, ok)

	fields := h.ScalarFields()
	require.Len(t, fields, 2)
	assert.Equal(t, "intensity", fields[0].Name)
	require.NotNil(t, fields[0].Shift)
	assert.Equal(t, 0.5, *fields[0].Shift)
	p, ok := fields[0].Precision()
	assert.True(t, ok)
	assert.Equal(t, "3", p)
	assert.Equal(t, "classification", fields[1].Name)
	assert.Nil(t, fields[1].Shift)
}

func TestParseHeaderAcceptsMissingKeys(t *testing.T) {
	t.Parallel()

	h, warnings, err := ParseHeader(strings.NewReader("[SBF]\n"), "h.sbf")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Zero(t, h.Len())
	_, ok := h.Points()
	assert.False(t, ok)
	_, ok = h.GlobalShift()
	assert.False(t, ok)
	assert.Empty(t, h.ScalarFieldNames())
}

func TestParseHeaderDuplicateKeys(t *testing.T) {
	t.Parallel()

	h, warnings, err := ParseHeader(strings.NewReader("[SBF]\nPoints=1\nFoo=2\nPoints=3\n"), "h.sbf")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{KeyPoints, "Foo"}, h.Keys())
	points, _ := h.Points()
	assert.Equal(t, 3.0, points)
	foo, ok := h.Number("Foo")
	assert.True(t, ok)
	assert.Equal(t, 2.0, foo)
}

func TestParseHeaderScalarFields(t *testing.T) {
	t.Parallel()

	in := "[SBF]\nSF10=ten\nSF2=two, p=4, s=abc\nSF1=, s=1\nSFx=7\nSF3=three, junk\n"
	h, warnings, err := ParseHeader(strings.NewReader(in), "h.sbf")
	require.NoError(t, err)

	var keys []string
	for _, w := range warnings {
		keys = append(keys, w.Key)
	}
	assert.Equal(t, []string{"SF2", "SF1", "SF3"}, keys)

	fields := h.ScalarFields()
	var idx []int
	for _, f := range fields {
		idx = append(idx, f.Index)
	}
	assert.Equal(t, []int{1, 2, 3, 10}, idx, "sorted by index")
	assert.Equal(t, []string{"", "two", "three", "ten"}, h.ScalarFieldNames())
	assert.Nil(t, fields[1].Shift, "unparseable shift is dropped")

	v, ok := h.Get("SFx")
	require.True(t, ok)
	assert.Equal(t, ValueNumber, v.Kind)
	assert.Equal(t, 7.0, v.Number)
}

func TestParseHeaderScalarFieldIndexes(t *testing.T) {
	t.Parallel()

	in := "[SBF]\nSF1=first\nSF99999999999999999999=huge\nSF01=again\nSF002=second\n"
	h, warnings, err := ParseHeader(strings.NewReader(in), "h.sbf")
	require.NoError(t, err)

	type got struct {
		Line int
		Key  string
	}
	var lines []got
	for _, w := range warnings {
		lines = append(lines, got{w.Line, w.Key})
	}
	want := []got{
		{3, "SF99999999999999999999"},
		{4, "SF01"},
		{5, "SF002"},
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, warnings[0].Message, "out of range")
	assert.NotContains(t, warnings[0].Message, "not a number")
	assert.Contains(t, warnings[1].Message, "replaces")

	assert.Equal(t, []string{"SF1", "SF2"}, h.Keys())
	assert.Equal(t, []string{"again", "second"}, h.ScalarFieldNames())
}

func TestParseHeaderInvalidUTF8(t *testing.T) {
	t.Parallel()

	in := "[SBF]\nPoints=2\nName=\xff\xfe\n"
	h, warnings, err := ParseHeader(strings.NewReader(in), "h.sbf")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 3, warnings[0].Line)
	assert.Equal(t, 1, h.Len())
}

func TestValueKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "number", ValueNumber.String())
	assert.Equal(t, "vector", ValueVector.String())
	assert.Equal(t, "scalar-field", ValueScalarField.String())
	assert.Equal(t, "kind(9)", ValueKind(9).String())
}

func TestValueString(t *testing.T) {
	t.Parallel()

	shift := 0.25
	tests := []struct {
		v    Value
		want string
	}{
		{Value{Kind: ValueNumber, Number: 12}, "12"},
		{Value{Kind: ValueVector, Vector: Vec3{1, -2.5, 3}}, "1, -2.5, 3"},
		{Value{Kind: ValueScalarField, Field: ScalarField{Name: "i"}}, "i"},
		{
			Value{Kind: ValueScalarField, Field: ScalarField{
				Name:       "i",
				Shift:      &shift,
				Attributes: map[string]string{"p": "3", "b": "x"},
			}},
			"i, s=0.25, b=x, p=3",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}
