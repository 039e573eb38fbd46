package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	// Save original logger
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")

	if !called {
		t.Error("Custom logger was not called")
	}

	// Now set to nil and verify it doesn't call our logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}

func TestCapture(t *testing.T) {
	original := Logf
	rec, restore := Capture()

	Logf("wrote %d points to %s", 3, "a.sbf")
	Logf("second")

	lines := rec.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "wrote 3 points to a.sbf" {
		t.Errorf("unexpected first line %q", lines[0])
	}

	restore()
	Logf("after restore")
	if len(rec.Lines()) != 2 {
		t.Error("recorder should not receive lines after restore")
	}
	if Logf == nil {
		t.Error("restore should put a logger back")
	}
	Logf = original
}

func TestRecorder_LinesIsCopy(t *testing.T) {
	rec := &Recorder{}
	rec.Logf("a")
	lines := rec.Lines()
	lines[0] = "mutated"
	if rec.Lines()[0] != "a" {
		t.Error("Lines should return a copy")
	}
}
