package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JSON codecs for the persisted layout.
//
// Writes always produce well-formed documents. Reads are tolerant: missing fields,
// malformed link lists, string ids and unparseable dates decode to empty values
// instead of failing, because campaigns arrive from older versions and hand-edited
// exports.

// reservedKeys are record keys owned by the store rather than the category fields.
var reservedKeys = map[string]bool{
	"id":          true,
	"linkedItems": true,
	"createdAt":   true,
	"modifiedAt":  true,
}

// MarshalJSON writes the id as a JSON number.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(id), 10)), nil
}

// UnmarshalJSON accepts integers, fractional numbers (truncated) and numeric strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	parsed, ok := parseID(data)
	if !ok {
		return fmt.Errorf("invalid record id: %s", string(data))
	}
	*id = parsed
	return nil
}

func parseID(data []byte) (ID, bool) {
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ID(n), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return ID(int64(f)), true
	}
	return 0, false
}

// MarshalJSON writes present categories as arrays, never null.
func (l Links) MarshalJSON() ([]byte, error) {
	out := make(map[string][]ID, len(l))
	for c, ids := range l {
		if ids == nil {
			ids = []ID{}
		}
		out[string(c)] = ids
	}
	return json.Marshal(out)
}

// UnmarshalJSON tolerates non-object input, unknown categories, non-array values and
// unparseable ids; each of these decodes as "absent" rather than failing.
func (l *Links) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*l = nil
		return nil
	}
	links := make(Links, len(raw))
	for key, value := range raw {
		c := Category(key)
		if c.Validate() != nil {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil || items == nil {
			continue
		}
		ids := make([]ID, 0, len(items))
		for _, item := range items {
			if id, ok := parseID(item); ok && id > 0 && !containsID(ids, id) {
				ids = append(ids, id)
			}
		}
		links[c] = ids
	}
	*l = links
	return nil
}

func containsID(ids []ID, id ID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// MarshalJSON writes YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD or RFC3339; anything else decodes as the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// MarshalJSON flattens the typed fields alongside id, linkedItems and timestamps.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+8)
	for k, v := range r.Extra {
		out[k] = v
	}

	if r.Fields != nil {
		fieldsJSON, err := json.Marshal(r.Fields)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record fields: %w", err)
		}
		var fieldMap map[string]json.RawMessage
		if err := json.Unmarshal(fieldsJSON, &fieldMap); err != nil {
			return nil, fmt.Errorf("failed to flatten record fields: %w", err)
		}
		for k, v := range fieldMap {
			out[k] = v
		}
	}

	out["id"] = r.ID
	out["createdAt"] = r.CreatedAt
	if r.LinkedItems != nil {
		out["linkedItems"] = r.LinkedItems
	}
	if r.ModifiedAt != nil {
		out["modifiedAt"] = r.ModifiedAt.UTC().Format(time.RFC3339)
	}

	return json.Marshal(out)
}

// DecodeRecord decodes one record of category c. Only input that is not a JSON object
// is an error; everything else degrades to empty values.
func DecodeRecord(c Category, data []byte) (*Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", c.Singular(), err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to decode %s record: not an object", c.Singular())
	}

	fields, err := NewFields(c)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, fields); err != nil {
		if _, typeErr := err.(*json.UnmarshalTypeError); !typeErr {
			return nil, fmt.Errorf("failed to decode %s fields: %w", c.Singular(), err)
		}
	}

	r := &Record{Fields: fields}
	if v, ok := raw["id"]; ok {
		if id, ok := parseID(v); ok {
			r.ID = id
		}
	}
	if v, ok := raw["linkedItems"]; ok {
		_ = r.LinkedItems.UnmarshalJSON(v)
	}
	if v, ok := raw["createdAt"]; ok {
		_ = r.CreatedAt.UnmarshalJSON(v)
	}
	if v, ok := raw["modifiedAt"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				r.ModifiedAt = &t
			}
		}
	}

	known := KnownKeys(c)
	for k, v := range raw {
		if reservedKeys[k] || known[k] {
			continue
		}
		var value any
		if json.Unmarshal(v, &value) == nil {
			if r.Extra == nil {
				r.Extra = make(map[string]any)
			}
			r.Extra[k] = value
		}
	}

	return r, nil
}

// MarshalJSON writes the campaign id as a string.
func (id CampaignID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a string or a number.
func (id *CampaignID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = CampaignID(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		*id = ""
		return nil
	}
	*id = CampaignID(n.String())
	return nil
}

// documentJSON fixes the key order of the persisted campaign.
type documentJSON struct {
	ID           CampaignID `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	CreatedAt    Date       `json:"createdAt"`
	LastModified Date       `json:"lastModified"`
	Locations    []*Record  `json:"locations"`
	Players      []*Record  `json:"players"`
	NPCs         []*Record  `json:"npcs"`
	Objects      []*Record  `json:"objects"`
	Quests       []*Record  `json:"quests"`
	Notes        []*Record  `json:"notes"`
}

// MarshalJSON writes every category array, empty ones included.
func (d *Document) MarshalJSON() ([]byte, error) {
	list := func(c Category) []*Record {
		if rs := d.Records[c]; rs != nil {
			return rs
		}
		return []*Record{}
	}
	return json.Marshal(documentJSON{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		CreatedAt:    d.CreatedAt,
		LastModified: d.LastModified,
		Locations:    list(CategoryLocations),
		Players:      list(CategoryPlayers),
		NPCs:         list(CategoryNPCs),
		Objects:      list(CategoryObjects),
		Quests:       list(CategoryQuests),
		Notes:        list(CategoryNotes),
	})
}

// UnmarshalJSON decodes a campaign, skipping array elements that are not objects
// and treating missing or malformed category arrays as empty.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode campaign: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("failed to decode campaign: not an object")
	}

	*d = Document{Records: make(map[Category][]*Record, len(categories))}
	if v, ok := raw["id"]; ok {
		_ = d.ID.UnmarshalJSON(v)
	}
	if v, ok := raw["name"]; ok {
		_ = json.Unmarshal(v, &d.Name)
	}
	if v, ok := raw["description"]; ok {
		_ = json.Unmarshal(v, &d.Description)
	}
	if v, ok := raw["createdAt"]; ok {
		_ = d.CreatedAt.UnmarshalJSON(v)
	}
	if v, ok := raw["lastModified"]; ok {
		_ = d.LastModified.UnmarshalJSON(v)
	}

	for _, c := range categories {
		records := []*Record{}
		var items []json.RawMessage
		if v, ok := raw[string(c)]; ok && json.Unmarshal(v, &items) == nil {
			for _, item := range items {
				r, err := DecodeRecord(c, item)
				if err != nil {
					continue
				}
				records = append(records, r)
			}
		}
		d.Records[c] = records
	}

	return nil
}

// DecodeDocuments decodes a persisted campaign list. Only input that is not a JSON
// array is an error; elements that are not campaign objects are skipped and reported
// to skipped, which may be nil.
func DecodeDocuments(data []byte, skipped func(index int, err error)) ([]*Document, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode campaign list: %w", err)
	}
	docs := make([]*Document, 0, len(items))
	for i, item := range items {
		var doc Document
		if err := json.Unmarshal(item, &doc); err != nil {
			if skipped != nil {
				skipped(i, err)
			}
			continue
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}
