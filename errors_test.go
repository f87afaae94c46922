package datautils_test

import (
	"errors"
	"testing"

	"github.com/mitchcodes/datautils"
)

type emptyErr struct{}

func (emptyErr) Error() string { return "" }

func TestIsError(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"string", "boom", false},
		{"int", 7, false},
		{"error", errors.New("boom"), true},
		{"empty message", emptyErr{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := datautils.IsError(tt.v); got != tt.want {
				t.Errorf("IsError(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestAsError_KeepsRealErrors(t *testing.T) {
	cause := errors.New("boom")
	if got := datautils.AsError(cause); got != cause {
		t.Errorf("AsError returned %v, want the original error", got)
	}
}

func TestAsError_WrapsOtherValues(t *testing.T) {
	err := datautils.AsError("plain string")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "plain string" {
		t.Errorf("Error() = %q, want %q", err.Error(), "plain string")
	}

	if datautils.AsError(nil) != nil {
		t.Error("AsError(nil) should be nil")
	}

	if datautils.AsError(emptyErr{}) == nil {
		t.Error("AsError should wrap an error with an empty message")
	}
}
