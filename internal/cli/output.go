package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"
)

// Record is the JSON shape printed for a single key.
type Record struct {
	Key     string          `json:"key"`
	Present bool            `json:"present"`
	Size    int             `json:"size"`
	Value   json.RawMessage `json:"value,omitempty"`
	Raw     string          `json:"raw,omitempty"`
}

// Result is the JSON shape printed by set and delete.
type Result struct {
	Status string `json:"status"`
	Key    string `json:"key"`
}

func newRecord(key string, data []byte, present bool) Record {
	record := Record{Key: key, Present: present, Size: len(data)}
	if !present {
		return record
	}
	if json.Valid(data) {
		record.Value = json.RawMessage(data)
	} else if utf8.Valid(data) {
		record.Raw = string(data)
	} else {
		record.Raw = fmt.Sprintf("%x", data)
	}
	return record
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
