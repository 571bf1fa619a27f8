package logger

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		dev     bool
		wantErr bool
	}{
		{"production info", "info", false, false},
		{"development debug", "debug", true, false},
		{"warn", "warn", false, false},
		{"invalid level", "loud", false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.level, tc.dev)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error for invalid level")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if log == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}
