package world

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Fields is the category-specific payload of a record. Each category has its own
// strongly-typed struct; the category is carried by the dynamic type.
type Fields interface {
	// Category reports which category these fields belong to
	Category() Category

	// Label is the display label (name, or title for quests and notes)
	Label() string

	// SearchText returns secondary descriptive values in a fixed order:
	// description, role, class, status, type (only those the category has)
	SearchText() []string

	// CloneFields returns a deep copy
	CloneFields() Fields
}

// LocationFields describes a place.
type LocationFields struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type,omitempty"`
	Region      string `json:"region,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (f *LocationFields) Category() Category { return CategoryLocations }
func (f *LocationFields) Label() string      { return f.Name }
func (f *LocationFields) SearchText() []string {
	return []string{f.Description, f.Status, f.Type}
}
func (f *LocationFields) CloneFields() Fields {
	c := *f
	return &c
}

// PlayerFields describes a player character.
type PlayerFields struct {
	Name        string `json:"name" validate:"required"`
	Player      string `json:"player,omitempty"`
	Class       string `json:"class,omitempty"`
	Race        string `json:"race,omitempty"`
	Level       int    `json:"level,omitempty" validate:"gte=0"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (f *PlayerFields) Category() Category { return CategoryPlayers }
func (f *PlayerFields) Label() string      { return f.Name }
func (f *PlayerFields) SearchText() []string {
	return []string{f.Description, f.Class, f.Status}
}
func (f *PlayerFields) CloneFields() Fields {
	c := *f
	return &c
}

// NPCFields describes a non-player character.
type NPCFields struct {
	Name        string `json:"name" validate:"required"`
	Role        string `json:"role,omitempty"`
	Race        string `json:"race,omitempty"`
	Attitude    string `json:"attitude,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (f *NPCFields) Category() Category { return CategoryNPCs }
func (f *NPCFields) Label() string      { return f.Name }
func (f *NPCFields) SearchText() []string {
	return []string{f.Description, f.Role, f.Status}
}
func (f *NPCFields) CloneFields() Fields {
	c := *f
	return &c
}

// ObjectFields describes an item. Owner is free text; ownership as a relation is a link.
type ObjectFields struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Rarity      string `json:"rarity,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (f *ObjectFields) Category() Category { return CategoryObjects }
func (f *ObjectFields) Label() string      { return f.Name }
func (f *ObjectFields) SearchText() []string {
	return []string{f.Description, f.Status, f.Type}
}
func (f *ObjectFields) CloneFields() Fields {
	c := *f
	return &c
}

// QuestFields describes a quest.
type QuestFields struct {
	Title       string `json:"title" validate:"required"`
	Giver       string `json:"giver,omitempty"`
	Reward      string `json:"reward,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (f *QuestFields) Category() Category { return CategoryQuests }
func (f *QuestFields) Label() string      { return f.Title }
func (f *QuestFields) SearchText() []string {
	return []string{f.Description, f.Status}
}
func (f *QuestFields) CloneFields() Fields {
	c := *f
	return &c
}

// NoteFields describes a session note.
type NoteFields struct {
	Title       string   `json:"title" validate:"required"`
	Type        string   `json:"type,omitempty"`
	Content     string   `json:"content,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (f *NoteFields) Category() Category { return CategoryNotes }
func (f *NoteFields) Label() string      { return f.Title }
func (f *NoteFields) SearchText() []string {
	return []string{f.Description, f.Type}
}
func (f *NoteFields) CloneFields() Fields {
	c := *f
	c.Tags = append([]string(nil), f.Tags...)
	return &c
}

// NewFields returns empty fields for the category.
func NewFields(c Category) (Fields, error) {
	switch c {
	case CategoryLocations:
		return &LocationFields{}, nil
	case CategoryPlayers:
		return &PlayerFields{}, nil
	case CategoryNPCs:
		return &NPCFields{}, nil
	case CategoryObjects:
		return &ObjectFields{}, nil
	case CategoryQuests:
		return &QuestFields{}, nil
	case CategoryNotes:
		return &NoteFields{}, nil
	default:
		return nil, fmt.Errorf("unknown category: %q", c)
	}
}

var validate = validator.New()

// ValidateFields checks the struct-level constraints of fields (label present, level >= 0).
func ValidateFields(f Fields) error {
	if err := validate.Struct(f); err != nil {
		return formatValidationError(f.Category().Singular(), err)
	}
	return nil
}

func formatValidationError(noun string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("invalid %s: %s", noun, strings.Join(msgs, "; "))
}

// FieldsFromMap builds typed fields from form-style key/value pairs, keyed by JSON name.
// Unknown keys and unparseable values are rejected, as is a missing label.
func FieldsFromMap(c Category, values map[string]string) (Fields, error) {
	f, err := NewFields(c)
	if err != nil {
		return nil, err
	}
	if err := ApplyValues(f, values); err != nil {
		return nil, err
	}
	if err := ValidateFields(f); err != nil {
		return nil, err
	}
	return f, nil
}

// ApplyValues overwrites the named fields of f in place. Used for edits.
func ApplyValues(f Fields, values map[string]string) error {
	v := reflect.ValueOf(f).Elem()
	index := fieldIndex(v.Type())
	for key, raw := range values {
		i, ok := index[key]
		if !ok {
			return fmt.Errorf("unknown %s field %q", f.Category().Singular(), key)
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int:
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("field %q: expected a number, got %q", key, raw)
			}
			field.SetInt(int64(n))
		case reflect.Slice:
			var items []string
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
			field.Set(reflect.ValueOf(items))
		}
	}
	return nil
}

// KnownKeys returns the JSON keys of the category's field struct.
func KnownKeys(c Category) map[string]bool {
	f, err := NewFields(c)
	if err != nil {
		return nil
	}
	keys := make(map[string]bool)
	for k := range fieldIndex(reflect.TypeOf(f).Elem()) {
		keys[k] = true
	}
	return keys
}

var (
	indexMu    sync.Mutex
	indexCache = map[reflect.Type]map[string]int{}
)

// fieldIndex maps JSON key to struct field position.
func fieldIndex(t reflect.Type) map[string]int {
	indexMu.Lock()
	defer indexMu.Unlock()
	if idx, ok := indexCache[t]; ok {
		return idx
	}
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			idx[name] = i
		}
	}
	indexCache[t] = idx
	return idx
}

// FieldValue is one named field rendered as text.
type FieldValue struct {
	Key   string
	Value string
}

// Values returns the non-empty fields of f as text, in struct declaration order.
// Slices are joined with ", ".
func Values(f Fields) []FieldValue {
	v := reflect.ValueOf(f).Elem()
	t := v.Type()
	var out []FieldValue
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		if s := fieldText(v.Field(i)); s != "" {
			out = append(out, FieldValue{Key: name, Value: s})
		}
	}
	return out
}

// Value returns the text of the field with JSON name key. ok is false if the category
// has no such field.
func Value(f Fields, key string) (value string, ok bool) {
	v := reflect.ValueOf(f).Elem()
	i, ok := fieldIndex(v.Type())[key]
	if !ok {
		return "", false
	}
	return fieldText(v.Field(i)), true
}

func fieldText(field reflect.Value) string {
	switch field.Kind() {
	case reflect.String:
		return field.String()
	case reflect.Int:
		if field.Int() == 0 {
			return ""
		}
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Slice:
		parts := make([]string, field.Len())
		for i := range parts {
			parts[i] = field.Index(i).String()
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
