package formdata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Amount is a monetary amount kept as exact decimal text. The textual form is
// preserved as entered ("100.00" stays "100.00", not "100") because the
// canonical amount string participates in authorization code derivation and
// outbound message rendering.
type Amount struct {
	value string
}

// ParseAmount validates and wraps a decimal string.
func ParseAmount(s string) (Amount, error) {
	if !validDecimal(s) {
		return Amount{}, fmt.Errorf("invalid amount: %q", s)
	}
	return Amount{value: s}, nil
}

// MustParseAmount is ParseAmount for statically known values; invalid input panics.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the amount exactly as it was parsed.
func (a Amount) String() string {
	return a.value
}

// IsZero reports whether the amount is unset.
func (a Amount) IsZero() bool {
	return a.value == ""
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func validDecimal(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" || (hasDot && fracPart == "") {
		return false
	}
	for _, part := range []string{intPart, fracPart} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
