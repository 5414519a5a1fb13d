package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Age is a driver's age in years. It decodes from a JSON number or from a
// numeric string, the form the mobile app's sign-up text field stores.
type Age int

func (a *Age) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Age(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("age must be a number or numeric string: %s", data)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("age %q is not a number", s)
	}
	*a = Age(n)
	return nil
}
