package world

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category identifies one of the fixed record kinds of a campaign.
// The category name is also the key used in a record's link map.
type Category string

const (
	// CategoryLocations holds places: towns, dungeons, inns
	CategoryLocations Category = "locations"

	// CategoryPlayers holds player characters
	CategoryPlayers Category = "players"

	// CategoryNPCs holds non-player characters
	CategoryNPCs Category = "npcs"

	// CategoryObjects holds items, artefacts and treasure
	CategoryObjects Category = "objects"

	// CategoryQuests holds quests and plot hooks
	CategoryQuests Category = "quests"

	// CategoryNotes holds free-form session notes
	CategoryNotes Category = "notes"
)

// categories is the declaration order. Search tie-breaks and document layout depend on it.
var categories = []Category{
	CategoryLocations,
	CategoryPlayers,
	CategoryNPCs,
	CategoryObjects,
	CategoryQuests,
	CategoryNotes,
}

// Categories returns all categories in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Index returns the declaration position of the category, or -1 if unknown.
func (c Category) Index() int {
	for i, known := range categories {
		if known == c {
			return i
		}
	}
	return -1
}

// Validate checks if the Category is a valid enum value.
func (c Category) Validate() error {
	if c.Index() < 0 {
		return fmt.Errorf("unknown category: %q", c)
	}
	return nil
}

// Singular returns the human-facing singular noun ("location", "npc", ...).
func (c Category) Singular() string {
	switch c {
	case CategoryNPCs:
		return "npc"
	default:
		return strings.TrimSuffix(string(c), "s")
	}
}

// ParseCategory accepts the plural category name or its singular form, case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range categories {
		if name == string(c) || name == c.Singular() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (valid: %s)", s, categoryList())
}

func categoryList() string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// ID identifies a record. Ids are unique within a campaign and never reused.
type ID int64

// String renders the id in decimal.
func (id ID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// Record is one entity of a campaign. The category is implied by the store holding it.
type Record struct {
	ID          ID
	Fields      Fields
	LinkedItems Links
	CreatedAt   Date
	ModifiedAt  *time.Time

	// Extra keeps JSON keys this version does not know about so they survive a round trip.
	Extra map[string]any
}

// Category reports the record's category as carried by its fields.
func (r *Record) Category() Category {
	if r.Fields == nil {
		return ""
	}
	return r.Fields.Category()
}

// Label returns the display label: name, or title for quests and notes.
func (r *Record) Label() string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields.Label()
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		ID:          r.ID,
		LinkedItems: r.LinkedItems.Clone(),
		CreatedAt:   r.CreatedAt,
	}
	if r.Fields != nil {
		out.Fields = r.Fields.CloneFields()
	}
	if r.ModifiedAt != nil {
		t := *r.ModifiedAt
		out.ModifiedAt = &t
	}
	if r.Extra != nil {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Validate checks that the record is well formed for the given category.
func (r *Record) Validate(c Category) error {
	if r.ID <= 0 {
		return fmt.Errorf("invalid record ID: must be positive, got %d", r.ID)
	}
	if r.Fields == nil {
		return fmt.Errorf("record %d has no fields", r.ID)
	}
	if r.Fields.Category() != c {
		return fmt.Errorf("record %d: fields belong to %s, not %s", r.ID, r.Fields.Category(), c)
	}
	for cat, ids := range r.LinkedItems {
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("record %d: invalid link category: %w", r.ID, err)
		}
		for _, id := range ids {
			if cat == c && id == r.ID {
				return fmt.Errorf("record %d links to itself", r.ID)
			}
		}
	}
	return nil
}

// Links maps a target category to an ordered set of record ids.
// A missing key means "no links of that category"; a present key may hold an empty list.
type Links map[Category][]ID

// Get returns the ids linked under category c and whether the key is present at all.
func (l Links) Get(c Category) ([]ID, bool) {
	ids, ok := l[c]
	return ids, ok
}

// Has reports whether id is linked under category c.
func (l Links) Has(c Category, id ID) bool {
	for _, existing := range l[c] {
		if existing == id {
			return true
		}
	}
	return false
}

// Count is the total number of linked ids across all categories.
func (l Links) Count() int {
	total := 0
	for _, ids := range l {
		total += len(ids)
	}
	return total
}

// Add appends id under category c unless already present.
// Returns false if the link already existed. The map must be non-nil.
func (l Links) Add(c Category, id ID) bool {
	if l.Has(c, id) {
		return false
	}
	l[c] = append(l[c], id)
	return true
}

// Remove deletes id from category c, keeping the key with whatever ids remain.
// Returns false if the link was not present.
func (l Links) Remove(c Category, id ID) bool {
	ids, ok := l[c]
	if !ok {
		return false
	}
	for i, existing := range ids {
		if existing == id {
			kept := make([]ID, 0, len(ids)-1)
			kept = append(kept, ids[:i]...)
			kept = append(kept, ids[i+1:]...)
			l[c] = kept
			return true
		}
	}
	return false
}

// Keys returns the present categories in declaration order.
func (l Links) Keys() []Category {
	keys := make([]Category, 0, len(l))
	for c := range l {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Index() < keys[j].Index() })
	return keys
}

// Clone returns a deep copy. A nil map clones to nil.
func (l Links) Clone() Links {
	if l == nil {
		return nil
	}
	out := make(Links, len(l))
	for c, ids := range l {
		out[c] = append([]ID{}, ids...)
	}
	return out
}

// DateLayout is the persisted calendar-date format.
const DateLayout = "2006-01-02"

// Date is a calendar day, persisted as YYYY-MM-DD.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD or a full RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}
