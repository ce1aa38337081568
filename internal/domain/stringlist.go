package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList is an ordered list of short strings (scoring reasons, spam
// flags) persisted as a JSON array in a TEXT column. Order is preserved so
// reasons keep their 1:1 mapping to the scorer's signal list.
type StringList []string

// Value implements driver.Valuer. A nil or empty list is stored as "[]" so
// scans never see SQL NULL.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT/BLOB columns.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("domain: StringList scan expects string or []byte")
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}
