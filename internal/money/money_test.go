package money

import "testing"

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input string
		want  int64
		err   error
	}{
		{"295000.00", 29500000, nil},
		{"295000", 29500000, nil},
		{"0.5", 50, nil},
		{"0.05", 5, nil},
		{".25", 25, nil},
		{"-12.34", -1234, nil},
		{"+7", 700, nil},
		{"1.234", 0, ErrTooManyDecimals},
		{"1.", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"12,50", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if err != tc.err {
			t.Errorf("ParseMinor(%q) error = %v, want %v", tc.input, err, tc.err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMinor(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{29500000, "295000.00"},
		{5, "0.05"},
		{50, "0.50"},
		{-1234, "-12.34"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := FormatMinor(tc.cents); got != tc.want {
			t.Errorf("FormatMinor(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
