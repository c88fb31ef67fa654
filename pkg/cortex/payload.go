package cortex

import (
	"encoding/json"
	"fmt"
)

// ContentItem is one element of a stored message payload. Type selects which
// of the remaining fields is meaningful.
type ContentItem struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Table       *Table       `json:"table,omitempty"`
	Chart       *Chart       `json:"chart,omitempty"`
}

// Table mirrors the result_set shape of a table content item.
type Table struct {
	ResultSet ResultSet `json:"result_set"`
}

type ResultSet struct {
	Data     [][]any        `json:"data"`
	Metadata ResultMetadata `json:"resultSetMetaData"`
}

type ResultMetadata struct {
	RowType []ColumnType `json:"rowType"`
}

type ColumnType struct {
	Name string `json:"name"`
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	names := make([]string, 0, len(t.ResultSet.Metadata.RowType))
	for _, col := range t.ResultSet.Metadata.RowType {
		names = append(names, col.Name)
	}
	return names
}

// Rows returns the result rows.
func (t *Table) Rows() [][]any {
	return t.ResultSet.Data
}

// Chart carries a declarative chart specification as an opaque JSON string,
// handed unmodified to whatever renders it.
type Chart struct {
	Spec string `json:"chart_spec"`
}

// Content parses the message's JSON-string payload into its ordered content
// items. Items of types other than text, annotations, chart, and table are
// dropped.
func (m *Message) Content() ([]ContentItem, error) {
	var payload struct {
		Content []ContentItem `json:"content"`
	}
	if err := json.Unmarshal([]byte(m.MessagePayload), &payload); err != nil {
		return nil, fmt.Errorf("parse message payload: %w", err)
	}

	items := make([]ContentItem, 0, len(payload.Content))
	for _, item := range payload.Content {
		switch item.Type {
		case "text", "annotations", "chart", "table":
			items = append(items, item)
		}
	}
	return items, nil
}
