// Package store keeps the records of one campaign category together with the
// editing, selection and notification state that accompanies them in the UI.
//
// A Store never persists itself and never touches other categories: removing a
// deleted record from other records' link maps is the graph package's job, and
// the owning campaign runs both as one logical operation.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dyluth/tome/pkg/world"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

// ErrCategoryMismatch is returned by Save when the fields belong to another category.
var ErrCategoryMismatch = errors.New("fields do not belong to this category")

// EditMode describes what the edit form is currently bound to.
type EditMode int

const (
	// EditNone means no form is open
	EditNone EditMode = iota

	// EditDraft means a blank create form is open
	EditDraft

	// EditExisting means the form edits an existing record
	EditExisting
)

// EditState is the current editing target. ID is only meaningful for EditExisting.
type EditState struct {
	Mode EditMode
	ID   world.ID
}

// NotificationKind distinguishes success from error notifications.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient user-facing message.
type Notification struct {
	Message   string
	Kind      NotificationKind
	ExpiresAt time.Time
}

// Store is the in-memory collection of one category. Not safe for concurrent use;
// the campaign model is single-threaded and callers serialise mutations.
type Store struct {
	category world.Category
	records  []*world.Record
	ids      world.IDSource

	editing  EditState
	selected world.ID

	notice *Notification
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for stamps and notification expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNotificationTTL overrides how long notifications stay visible.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithRecords seeds the store with existing records (used when loading a campaign).
// The records are taken over, not copied.
func WithRecords(records []*world.Record) Option {
	return func(s *Store) { s.records = append(s.records, records...) }
}

// New creates an empty store for category c drawing ids from ids.
func New(c world.Category, ids world.IDSource, opts ...Option) *Store {
	s := &Store{
		category: c,
		ids:      ids,
		ttl:      DefaultNotificationTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Category returns the category this store holds.
func (s *Store) Category() world.Category {
	return s.category
}

// OpenCreateForm binds the edit form to a blank draft. Data is untouched.
func (s *Store) OpenCreateForm() {
	s.editing = EditState{Mode: EditDraft}
}

// OpenEditForm binds the edit form to the record with the given id.
// It is a no-op returning false when the record no longer exists.
func (s *Store) OpenEditForm(id world.ID) bool {
	if s.index(id) < 0 {
		return false
	}
	s.editing = EditState{Mode: EditExisting, ID: id}
	return true
}

// CancelEdit closes the edit form without saving.
func (s *Store) CancelEdit() {
	s.editing = EditState{}
}

// Editing returns the current edit target.
func (s *Store) Editing() EditState {
	return s.editing
}

// Save applies the form. When the form is bound to an existing record its fields are
// replaced and modifiedAt is stamped; otherwise a new record is created with a fresh id
// and appended. The form is closed and a success notification raised either way.
// The returned record is a copy.
func (s *Store) Save(fields world.Fields) (*world.Record, error) {
	if fields == nil {
		return nil, fmt.Errorf("save %s: no fields", s.category.Singular())
	}
	if fields.Category() != s.category {
		return nil, fmt.Errorf("save %s: %w (got %s)", s.category.Singular(), ErrCategoryMismatch, fields.Category())
	}

	now := s.now()
	var saved *world.Record
	var verb string

	if i := s.editingIndex(); i >= 0 {
		r := s.records[i]
		r.Fields = fields.CloneFields()
		stamp := now.UTC()
		r.ModifiedAt = &stamp
		saved = r
		verb = "updated"
	} else {
		saved = &world.Record{
			ID:        s.ids.NextID(),
			Fields:    fields.CloneFields(),
			CreatedAt: world.DateOf(now),
		}
		s.records = append(s.records, saved)
		verb = "created"
	}

	s.editing = EditState{}
	s.notify(fmt.Sprintf("%s %q %s", capitalise(s.category.Singular()), saved.Label(), verb), NotificationSuccess)
	return saved.Clone(), nil
}

// Delete removes the record with id and raises a notification naming label.
// Deleting an absent id is a no-op returning false. Links held by other records are
// not touched here.
func (s *Store) Delete(id world.ID, label string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)

	if s.editing.Mode == EditExisting && s.editing.ID == id {
		s.editing = EditState{}
	}
	if s.selected == id {
		s.selected = 0
	}

	if label == "" {
		label = id.String()
	}
	s.notify(fmt.Sprintf("%s %q deleted", capitalise(s.category.Singular()), label), NotificationSuccess)
	return true
}

// Select marks a record as the one being viewed. Returns false if it does not exist.
func (s *Store) Select(id world.ID) bool {
	if s.index(id) < 0 {
		return false
	}
	s.selected = id
	return true
}

// CloseDetails clears the viewed record.
func (s *Store) CloseDetails() {
	s.selected = 0
}

// Selected returns a copy of the viewed record, if any.
func (s *Store) Selected() (*world.Record, bool) {
	if s.selected == 0 {
		return nil, false
	}
	return s.Get(s.selected)
}

// IsEmpty reports whether the store holds no records.
func (s *Store) IsEmpty() bool {
	return len(s.records) == 0
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns copies of all records in collection order.
func (s *Store) Records() []*world.Record {
	out := make([]*world.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the record with id.
func (s *Store) Get(id world.ID) (*world.Record, bool) {
	r, ok := s.Lookup(id)
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Lookup returns the live record with id. Only the graph package should mutate it,
// and only its link map.
func (s *Store) Lookup(id world.ID) (*world.Record, bool) {
	if i := s.index(id); i >= 0 {
		return s.records[i], true
	}
	return nil, false
}

// Each calls fn for every live record in collection order until fn returns false.
func (s *Store) Each(fn func(*world.Record) bool) {
	for _, r := range s.records {
		if !fn(r) {
			return
		}
	}
}

// Replace swaps the whole collection, dropping edit and selection state that no
// longer resolves.
func (s *Store) Replace(records []*world.Record) {
	s.records = append([]*world.Record(nil), records...)
	if s.editing.Mode == EditExisting && s.index(s.editing.ID) < 0 {
		s.editing = EditState{}
	}
	if s.selected != 0 && s.index(s.selected) < 0 {
		s.selected = 0
	}
}

// Notification returns the pending notification unless it has expired.
func (s *Store) Notification() (Notification, bool) {
	if s.notice == nil || !s.now().Before(s.notice.ExpiresAt) {
		return Notification{}, false
	}
	return *s.notice, true
}

// Notify raises a notification on this store.
func (s *Store) Notify(message string, kind NotificationKind) {
	s.notify(message, kind)
}

func (s *Store) notify(message string, kind NotificationKind) {
	s.notice = &Notification{
		Message:   message,
		Kind:      kind,
		ExpiresAt: s.now().Add(s.ttl),
	}
}

func (s *Store) editingIndex() int {
	if s.editing.Mode != EditExisting {
		return -1
	}
	return s.index(s.editing.ID)
}

func (s *Store) index(id world.ID) int {
	if id == 0 {
		return -1
	}
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	if s == "npc" {
		return "NPC"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
