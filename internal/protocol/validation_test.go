package protocol

import "testing"

func TestIsIPv4Literal(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"192.168.1.1", true},
		{"255.255.255.0", true},
		{"0.0.0.0", true},
		{"10.0.0.1", true},
		{"01.2.3.4", true}, // leading zeros are accepted
		{"001.002.003.004", true},
		{"256.1.1.1", false},
		{"1.2.3.", false},
		{"1.2.3", false},
		{".1.2.3.4", false},
		{"1.2.3.4.", false},
		{"1.2.3.4.5", false},
		{"10.0.0.999", false},
		{"a.b.c.d", false},
		{"1.2.3.4 ", false},
		{"", false},
		{"1..2.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsIPv4Literal(tt.input); got != tt.want {
				t.Errorf("IsIPv4Literal(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateIPv4(t *testing.T) {
	err := ValidateIPv4(FieldGateway, "1.2.3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsInvalidInput(err) {
		t.Errorf("expected InvalidInput, got %T", err)
	}
	if fields := InvalidFields(err); len(fields) != 1 || fields[0] != FieldGateway {
		t.Errorf("InvalidFields() = %v, want [gateway]", fields)
	}

	if err := ValidateIPv4(FieldGateway, "192.168.0.1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateWiFiAdvanced_ChecksEveryField(t *testing.T) {
	errs := ValidateWiFiAdvanced("x", "y", "z")
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3", len(errs))
	}
	for _, err := range errs {
		if err.Type != ErrTypeInvalidInput {
			t.Errorf("error type = %v, want %v", err.Type, ErrTypeInvalidInput)
		}
	}
}
