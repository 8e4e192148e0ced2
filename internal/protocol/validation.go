package protocol

import (
	"fmt"
	"regexp"
)

// ipv4Pattern matches a dotted quad with every octet in 0-255.
// Leading zeros are accepted ("01.2.3.4" is valid); the device parses them the same way.
var ipv4Pattern = regexp.MustCompile(`^(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)(\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)){3}$`)

// IsIPv4Literal reports whether s is a dotted-quad IPv4 literal
func IsIPv4Literal(s string) bool {
	return ipv4Pattern.MatchString(s)
}

// ValidateIPv4 validates one request field as an IPv4 literal
func ValidateIPv4(field Field, value string) error {
	if value == "" {
		return NewInvalidInputError(field, fmt.Sprintf("%s is required", field.Label()))
	}
	if !IsIPv4Literal(value) {
		return NewInvalidInputError(field, fmt.Sprintf("%s must be a dotted-quad IPv4 address, got %q", field.Label(), value))
	}
	return nil
}

// ValidateWiFiAdvanced checks all three static IP fields.
// Every field is checked so each invalid one can be flagged at once.
func ValidateWiFiAdvanced(localIP, gateway, subnet string) ValidationErrors {
	var errs ValidationErrors

	checks := []struct {
		field Field
		value string
	}{
		{FieldLocalIP, localIP},
		{FieldGateway, gateway},
		{FieldSubnet, subnet},
	}

	for _, c := range checks {
		if err := ValidateIPv4(c.field, c.value); err != nil {
			errs = append(errs, err.(*Error))
		}
	}

	return errs
}
