package models

import "encoding/json"

// StringOrList decodes a JSON field that upstream sometimes emits as a
// scalar string and sometimes as an array of strings, coercing either into
// a single representation.
type StringOrList []string

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*s = asList
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	if asString == "" {
		*s = nil
		return nil
	}
	*s = []string{asString}
	return nil
}

func (s StringOrList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(s))
}
