package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString is a text field the backend sends as a string, number or boolean
// depending on the endpoint. It always holds the textual form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode flex string: %w", err)
		}
		*f = FlexString(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("failed to decode flex bool: %w", err)
		}
		*f = FlexString(strconv.FormatBool(b))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("failed to decode flex number: %w", err)
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
