package util

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "QConsB1", 10, "QConsB1"},
		{"exact width", "QConsB1", 7, "QConsB1"},
		{"truncated", "Blocking queue consumer started.", 12, "Blocking ..."},
		{"width at ellipsis", "QProdB2", 3, "..."},
		{"negative width", "QProdB2", -4, "..."},
		{"wide characters", "日本語のタスク", 7, "日本..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateANSI(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("TruncateANSI(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTruncateANSI_KeepsStyling(t *testing.T) {
	styled := "\x1b[31mIncorrect value received on blocking queue\x1b[0m"

	got := TruncateANSI(styled, 20)
	if w := lipgloss.Width(got); w > 20 {
		t.Errorf("width = %d, want at most 20", w)
	}
	if !strings.HasPrefix(got, "\x1b[31m") {
		t.Errorf("TruncateANSI dropped the leading escape: %q", got)
	}
	if !strings.Contains(got, "...") {
		t.Errorf("TruncateANSI(%q) = %q, want an ellipsis", styled, got)
	}

	short := "\x1b[32mQConsB1\x1b[0m"
	if got := TruncateANSI(short, 7); got != short {
		t.Errorf("escape codes should not count toward width: got %q", got)
	}
}

func TestJoinNames(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"nil", nil, "none"},
		{"empty", []string{}, "none"},
		{"one", []string{"QConsB6"}, "QConsB6"},
		{"several", []string{"QProdB2", "QConsB3", "QProdB5"}, "QProdB2, QConsB3, QProdB5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinNames(tt.names, "none"); got != tt.want {
				t.Errorf("JoinNames(%v) = %q, want %q", tt.names, got, tt.want)
			}
		})
	}
}
