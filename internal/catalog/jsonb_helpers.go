package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB wrapper types for the intent_rules table. trigger_words, synonyms
// and parameters are stored as JSONB columns; these wrappers implement
// driver.Valuer / sql.Scanner so sqlx can move them in and out directly.

// JSONBStringSlice stores a []string as a JSONB array.
type JSONBStringSlice []string

// Value implements the driver.Valuer interface for database storage
func (j JSONBStringSlice) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(j))
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONBStringSlice) Scan(value interface{}) error {
	bytes, err := jsonbBytes(value)
	if err != nil || bytes == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(bytes, (*[]string)(j))
}

// JSONBSynonyms stores the canonical-word -> alternates map as a JSONB object.
type JSONBSynonyms map[string][]string

// Value implements the driver.Valuer interface for database storage
func (j JSONBSynonyms) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal(map[string][]string{})
	}
	return json.Marshal(map[string][]string(j))
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONBSynonyms) Scan(value interface{}) error {
	bytes, err := jsonbBytes(value)
	if err != nil || bytes == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(bytes, (*map[string][]string)(j))
}

// JSONBParameterSpecs stores the ordered parameter list as a JSONB array.
type JSONBParameterSpecs []ParameterSpec

// Value implements the driver.Valuer interface for database storage
func (j JSONBParameterSpecs) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal([]ParameterSpec{})
	}
	return json.Marshal([]ParameterSpec(j))
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONBParameterSpecs) Scan(value interface{}) error {
	bytes, err := jsonbBytes(value)
	if err != nil || bytes == nil {
		*j = nil
		return err
	}
	return json.Unmarshal(bytes, (*[]ParameterSpec)(j))
}

func jsonbBytes(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("cannot scan non-string/[]byte value into JSONB column")
	}
}
