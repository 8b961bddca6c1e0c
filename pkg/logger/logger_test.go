package logger

import "testing"

func TestInitAndLevels(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if Get() == nil {
		t.Fatal("Get returned nil after Init")
	}
	if Named("test") == nil {
		t.Fatal("Named returned nil")
	}
	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Fatalf("SetLevelString(%q) returned error: %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
