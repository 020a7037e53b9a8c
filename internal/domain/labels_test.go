package domain_test

import (
	"testing"

	"github.com/bnema/previewgate/internal/domain"
)

// TestLabelKey guards against accidental value changes that would silently
// break deployed-app discovery.
func TestLabelKey(t *testing.T) {
	tests := []struct {
		prefix, suffix string
		expected       string
	}{
		{"", domain.LabelApp, "previewgate.app"},
		{"", domain.LabelPort, "previewgate.port"},
		{"acme", domain.LabelApp, "acme.app"},
	}
	for _, tt := range tests {
		if got := domain.LabelKey(tt.prefix, tt.suffix); got != tt.expected {
			t.Errorf("LabelKey(%q, %q) = %q, want %q", tt.prefix, tt.suffix, got, tt.expected)
		}
	}
}
