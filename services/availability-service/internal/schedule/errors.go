package schedule

import "fmt"

// ConfigurationError reports a malformed weekday schedule or booking policy.
// Scope is the weekday name, or "policy".
type ConfigurationError struct {
	Scope  string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schedule configuration: %s: %s", e.Scope, e.Reason)
	}
	return fmt.Sprintf("schedule configuration: %s.%s: %s", e.Scope, e.Field, e.Reason)
}

func weekdayError(d Weekday, field, reason string) error {
	return &ConfigurationError{Scope: d.String(), Field: field, Reason: reason}
}

func policyError(field, reason string) error {
	return &ConfigurationError{Scope: "policy", Field: field, Reason: reason}
}
