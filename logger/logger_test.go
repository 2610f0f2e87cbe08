package logger

import "testing"

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew(t *testing.T) {
	for _, dev := range []bool{false, true} {
		l, err := New("debug", dev)
		if err != nil {
			t.Fatal(err)
		}
		l.Debugw("hello", "dev", dev)
	}
}
