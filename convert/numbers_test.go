package convert

import "testing"

func TestRoundFloat64(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		decimals int
		expected float64
	}{
		{name: "two decimals", input: 45.298, decimals: 2, expected: 45.30},
		{name: "three decimals", input: 1.5004, decimals: 3, expected: 1.500},
		{name: "six decimals", input: 0.6869999, decimals: 6, expected: 0.687},
		{name: "rounds half away from zero", input: 0.125, decimals: 2, expected: 0.13},
		{name: "zero decimals", input: 12.6, decimals: 0, expected: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundFloat64(tt.input, tt.decimals); got != tt.expected {
				t.Errorf("RoundFloat64(%v, %d) expected %v, got %v", tt.input, tt.decimals, tt.expected, got)
			}
		})
	}
}

func TestWhToKWh(t *testing.T) {
	if got := WhToKWh(1500); got != 1.5 {
		t.Errorf("WhToKWh(1500) expected 1.5, got %v", got)
	}
}

func TestParseDecimalComma(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{name: "comma separator", input: "45,30", expected: 45.30},
		{name: "dot separator passes through", input: "45.30", expected: 45.30},
		{name: "surrounding whitespace", input: " 7,5 ", expected: 7.5},
		{name: "negative price", input: "-0,51", expected: -0.51},
		{name: "not a number", input: "n/a", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalComma(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDecimalComma(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalComma(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseDecimalComma(%q) expected %v, got %v", tt.input, tt.expected, got)
			}
		})
	}
}

func TestFormatDecimalComma(t *testing.T) {
	if got := FormatDecimalComma(45.3, 2); got != "45,30" {
		t.Errorf("FormatDecimalComma(45.3, 2) expected \"45,30\", got %q", got)
	}
}

func TestFormatDecimal(t *testing.T) {
	if got := FormatDecimal(1.5, 3); got != "1.500" {
		t.Errorf("FormatDecimal(1.5, 3) expected \"1.500\", got %q", got)
	}
	if got := FormatDecimal(0.687, 6); got != "0.687000" {
		t.Errorf("FormatDecimal(0.687, 6) expected \"0.687000\", got %q", got)
	}
}
