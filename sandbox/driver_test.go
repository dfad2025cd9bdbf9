package sandbox

import "testing"

func TestParseMemoryLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"256m", 256 << 20},
		{"1g", 1 << 30},
		{"512k", 512 << 10},
		{"1048576b", 1048576},
		{"", 256 << 20},
		{"not-a-size", 256 << 20},
		{"0m", 256 << 20},
	}

	for _, tt := range tests {
		if got := parseMemoryLimit(tt.in); got != tt.want {
			t.Errorf("parseMemoryLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNetworkMode(t *testing.T) {
	if got := networkMode(false); got != "none" {
		t.Errorf("networkMode(false) = %q, want none", got)
	}
	if got := networkMode(true); got != "bridge" {
		t.Errorf("networkMode(true) = %q, want bridge", got)
	}
}
