package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/matzehuels/nodemap/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"interrupted", fmt.Errorf("settle: %w", context.Canceled), exitInterrupted},
		{"no root", errors.New(errors.ErrCodeNoRoot, "no root item in site.md"), exitConfig},
		{"ambiguous target", errors.New(errors.ErrCodeInvalidTarget, "2 surfaces match"), exitConfig},
		{"bad format", errors.New(errors.ErrCodeInvalidFormat, "unknown format bmp"), exitFailure},
		{"plain", fmt.Errorf("disk full"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
