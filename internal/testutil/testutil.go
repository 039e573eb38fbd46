// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// RandomRows returns channels rows of points values each, drawn from a
// generator seeded with seed so fixtures are reproducible. Coordinates
// (rows 0-2) fall in [-500, 500); later rows fall in [0, 1).
func RandomRows(seed int64, channels, points int) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float32, channels)
	for r := range rows {
		rows[r] = make([]float32, points)
		for c := range rows[r] {
			if r < 3 {
				rows[r][c] = float32(rng.Float64()*1000 - 500)
			} else {
				rows[r][c] = rng.Float32()
			}
		}
	}
	return rows
}

// FieldNames returns n distinct scalar field names: sf1, sf2, ...
func FieldNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("sf%d", i+1)
	}
	return names
}

// TempSBFPath returns a header path named name inside a fresh test
// directory. Nothing is created.
func TempSBFPath(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
