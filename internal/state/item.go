package state

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Item is one result row. Fields holds the server-owned values exactly as
// decoded; optimistic overlays are merged only into snapshot copies.
type Item struct {
	ID     string
	Fields map[string]any
	// Positional is set when the row carried no id and ID is only its
	// position in the response. Positional items never take overlays.
	Positional bool
}

// Value returns the raw value of field.
func (i Item) Value(field string) any {
	return i.Fields[field]
}

// String returns field formatted for display, or "" when absent.
func (i Item) String(field string) string {
	v, ok := i.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool interprets field as a boolean flag.
func (i Item) Bool(field string) bool {
	switch v := i.Fields[field].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Int interprets field as an integer, returning 0 when it is not numeric.
func (i Item) Int(field string) int64 {
	switch v := i.Fields[field].(type) {
	case json.Number:
		n, _ := v.Int64()
		return n
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func (i Item) clone() Item {
	fields := make(map[string]any, len(i.Fields))
	for k, v := range i.Fields {
		fields[k] = v
	}
	return Item{ID: i.ID, Fields: fields, Positional: i.Positional}
}

// DecodeItems parses a response payload into items. resultKey names the
// envelope field holding the array (empty when the payload is the array) and
// idField names the field used as the item id. Items without an id are kept
// for display under a positional id ("#0", "#1", ...) and marked Positional;
// later duplicates of an id are dropped.
func DecodeItems(payload []byte, resultKey, idField string) ([]Item, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}
	if idField == "" {
		idField = "id"
	}

	raw := payload
	if resultKey != "" {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		inner, ok := envelope[resultKey]
		if !ok {
			return nil, nil
		}
		raw = inner
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]Item, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for idx, row := range rows {
		id := idString(row[idField])
		positional := id == ""
		if positional {
			id = "#" + strconv.Itoa(idx)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, Item{ID: id, Fields: row, Positional: positional})
	}
	return items, nil
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}
