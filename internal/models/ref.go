package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Ref is a reference to another backend record. The backend returns either a
// bare id string or an embedded document, depending on whether it populated
// the relation.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts "id", {"_id": "...", "name": "..."} or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}

	var doc struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Name    string `json:"name"`
		Title   string `json:"title"`
		Shop    string `json:"shopname"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	r.ID = firstNonEmpty(doc.MongoID, doc.ID)
	r.Name = firstNonEmpty(doc.Name, doc.Title, doc.Shop)
	return nil
}

// MarshalJSON writes the reference as its id, which is what the backend
// expects in create/update payloads.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// Metric is a read-only display value computed by the backend. It arrives as
// a number or as preformatted text ("10%").
type Metric string

// UnmarshalJSON accepts numbers, strings and null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*m = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Metric(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*m = Metric(n.String())
	}
	return nil
}

// Or returns the metric, or def when the backend sent nothing.
func (m Metric) Or(def string) string {
	if m == "" {
		return def
	}
	return string(m)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
