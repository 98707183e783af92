package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"ON", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"Off", true, false},
		{"", true, true},
		{"", false, false},
		{"banana", true, true},
		{"banana", false, false},
		{"  true  ", false, true},
	}
	for _, tc := range cases {
		t.Setenv("PLANPIPE_TEST_BOOL", tc.value)
		if got := ParseBoolEnv("PLANPIPE_TEST_BOOL", tc.defaultValue); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.value, tc.defaultValue, got, tc.want)
		}
	}
}
