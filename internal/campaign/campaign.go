// Package campaign owns the state of whole campaigns: the six category stores of each
// campaign, the links between their records, and the library of campaigns that is
// persisted after every change.
package campaign

import (
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/tome/internal/graph"
	"github.com/dyluth/tome/internal/search"
	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
)

var (
	// ErrCampaignNotFound is returned when a campaign id does not resolve
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrRecordNotFound is returned when an explicit edit targets a missing record
	ErrRecordNotFound = errors.New("record not found")
)

// Campaign is one campaign: metadata plus one store per category.
// Not safe for concurrent use.
type Campaign struct {
	id           world.CampaignID
	name         string
	description  string
	createdAt    world.Date
	lastModified world.Date

	stores [6]*store.Store
	ids    *world.IDAllocator

	now      func() time.Time
	onChange func(*Campaign)
}

// Option configures a Campaign.
type Option func(*settings)

type settings struct {
	now      func() time.Time
	ttl      time.Duration
	onChange func(*Campaign)
}

// WithClock sets the time source for record and campaign stamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithNotificationTTL sets how long store notifications stay visible.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

// WithChangeHandler registers fn to run after every mutation that changed the campaign.
func WithChangeHandler(fn func(*Campaign)) Option {
	return func(s *settings) { s.onChange = fn }
}

func buildSettings(opts []Option) settings {
	s := settings{now: time.Now, ttl: store.DefaultNotificationTTL}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// New creates an empty campaign with a fresh id.
func New(name, description string, opts ...Option) *Campaign {
	s := buildSettings(opts)
	today := world.DateOf(s.now())
	return FromDocument(&world.Document{
		ID:           world.NewCampaignID(),
		Name:         name,
		Description:  description,
		CreatedAt:    today,
		LastModified: today,
	}, opts...)
}

// FromDocument builds a campaign from its persisted form. The document's records are
// copied. Records without fields are dropped; records without a usable id, or repeating
// an id already seen in their category, are given a fresh one and no links.
func FromDocument(doc *world.Document, opts ...Option) *Campaign {
	s := buildSettings(opts)
	c := &Campaign{
		id:           doc.ID,
		name:         doc.Name,
		description:  doc.Description,
		createdAt:    doc.CreatedAt,
		lastModified: doc.LastModified,
		ids:          world.NewIDAllocatorWithClock(s.now),
		now:          s.now,
		onChange:     s.onChange,
	}

	for _, records := range doc.Records {
		for _, r := range records {
			if r != nil {
				c.ids.Observe(r.ID)
			}
		}
	}

	for _, cat := range world.Categories() {
		records := c.adopt(cat, doc.Records[cat])
		c.stores[cat.Index()] = store.New(cat, c.ids,
			store.WithClock(s.now),
			store.WithNotificationTTL(s.ttl),
			store.WithRecords(records))
	}
	return c
}

// ID returns the campaign id.
func (c *Campaign) ID() world.CampaignID { return c.id }

// Name returns the campaign name.
func (c *Campaign) Name() string { return c.name }

// Description returns the campaign description.
func (c *Campaign) Description() string { return c.description }

// CreatedAt returns the day the campaign was created.
func (c *Campaign) CreatedAt() world.Date { return c.createdAt }

// LastModified returns the day of the last change.
func (c *Campaign) LastModified() world.Date { return c.lastModified }

// Collection returns the store of category cat, or nil for an unknown category.
func (c *Campaign) Collection(cat world.Category) *store.Store {
	i := cat.Index()
	if i < 0 {
		return nil
	}
	return c.stores[i]
}

// RecordCount is the number of records across all categories.
func (c *Campaign) RecordCount() int {
	total := 0
	for _, s := range c.stores {
		total += s.Len()
	}
	return total
}

// Save applies the category's edit form: it updates the record being edited or creates
// a new one. See store.Store.Save.
func (c *Campaign) Save(cat world.Category, fields world.Fields) (*world.Record, error) {
	s := c.Collection(cat)
	if s == nil {
		return nil, fmt.Errorf("unknown category: %q", cat)
	}
	r, err := s.Save(fields)
	if err != nil {
		return nil, err
	}
	c.touch()
	return r, nil
}

// Edit binds the edit form to record id and saves fields into it in one step.
func (c *Campaign) Edit(cat world.Category, id world.ID, fields world.Fields) (*world.Record, error) {
	s := c.Collection(cat)
	if s == nil {
		return nil, fmt.Errorf("unknown category: %q", cat)
	}
	if !s.OpenEditForm(id) {
		return nil, fmt.Errorf("%s %s: %w", cat.Singular(), id, ErrRecordNotFound)
	}
	return c.Save(cat, fields)
}

// DeleteRecord disconnects the record from everything it links to and then removes it.
// Deleting a missing record is a no-op returning false.
func (c *Campaign) DeleteRecord(cat world.Category, id world.ID) bool {
	s := c.Collection(cat)
	if s == nil {
		return false
	}
	r, ok := s.Lookup(id)
	if !ok {
		return false
	}
	graph.Cascade(c, graph.Endpoint{Category: cat, ID: id})
	s.Delete(id, r.Label())
	c.touch()
	return true
}

// Connect links two records in both directions. See graph.Connect.
func (c *Campaign) Connect(a, b graph.Endpoint) bool {
	if !graph.Connect(c, a, b) {
		return false
	}
	c.touch()
	return true
}

// Disconnect unlinks two records in both directions. See graph.Disconnect.
func (c *Campaign) Disconnect(a, b graph.Endpoint) bool {
	if !graph.Disconnect(c, a, b) {
		return false
	}
	c.touch()
	return true
}

// Record returns a copy of one record.
func (c *Campaign) Record(e graph.Endpoint) (*world.Record, bool) {
	s := c.Collection(e.Category)
	if s == nil {
		return nil, false
	}
	return s.Get(e.ID)
}

// LinkedItems resolves the links of record e.
func (c *Campaign) LinkedItems(e graph.Endpoint) map[world.Category][]*world.Record {
	r, ok := c.Record(e)
	if !ok {
		return map[world.Category][]*world.Record{}
	}
	return graph.LinkedItems(c, r)
}

// AvailableItems lists the records of target that e could still be connected to.
func (c *Campaign) AvailableItems(e graph.Endpoint, target world.Category) []*world.Record {
	return graph.AvailableItems(c, e, target)
}

// ConnectionCount is the number of links record e holds.
func (c *Campaign) ConnectionCount(e graph.Endpoint) int {
	r, ok := c.Record(e)
	if !ok {
		return 0
	}
	return graph.ConnectionCount(r)
}

// Search finds records by label and secondary fields. See search.Search.
func (c *Campaign) Search(query string, limit int) []search.Match {
	return search.Search(query, c, limit)
}

// Audit reports inconsistent links.
func (c *Campaign) Audit() []graph.Issue {
	return graph.Audit(c)
}

// Repair fixes inconsistent links and returns what was fixed.
func (c *Campaign) Repair() []graph.Issue {
	fixed := graph.Repair(c)
	if len(fixed) > 0 {
		c.touch()
	}
	return fixed
}

// Patch is a shallow update of a campaign. Nil fields are left alone; a category
// present in Records replaces that whole collection.
type Patch struct {
	Name        *string
	Description *string
	Records     map[world.Category][]*world.Record
}

// Update applies p. Replaced collections are copied; records in them without a usable
// id are given a fresh one.
//
// Replacing a collection unlinks every record it held, so dropped records leave no
// dangling ids behind. The incoming links are then connected in both directions where
// the target exists and discarded where it does not.
func (c *Campaign) Update(p Patch) error {
	for cat := range p.Records {
		if err := cat.Validate(); err != nil {
			return err
		}
	}

	if p.Name != nil {
		c.name = *p.Name
	}
	if p.Description != nil {
		c.description = *p.Description
	}

	for cat := range p.Records {
		c.Collection(cat).Each(func(r *world.Record) bool {
			graph.Cascade(c, graph.Endpoint{Category: cat, ID: r.ID})
			return true
		})
	}

	type pendingLinks struct {
		from  graph.Endpoint
		links world.Links
	}
	var incoming []pendingLinks
	for _, cat := range world.Categories() {
		records, ok := p.Records[cat]
		if !ok {
			continue
		}
		for _, r := range records {
			if r != nil {
				c.ids.Observe(r.ID)
			}
		}
		replaced := c.adopt(cat, records)
		for _, r := range replaced {
			incoming = append(incoming, pendingLinks{graph.Endpoint{Category: cat, ID: r.ID}, r.LinkedItems})
			r.LinkedItems = nil
		}
		c.Collection(cat).Replace(replaced)
	}

	for _, in := range incoming {
		for _, target := range in.links.Keys() {
			for _, id := range in.links[target] {
				graph.Connect(c, in.from, graph.Endpoint{Category: target, ID: id})
			}
		}
	}

	c.touch()
	return nil
}

// adopt copies the well-formed records of category cat. Records without a usable id,
// or repeating an id already taken, get a fresh id and lose their links: partners
// still point at the old id.
func (c *Campaign) adopt(cat world.Category, records []*world.Record) []*world.Record {
	adopted := make([]*world.Record, 0, len(records))
	seen := make(map[world.ID]bool)
	for _, r := range records {
		if r == nil || r.Fields == nil || r.Fields.Category() != cat {
			continue
		}
		r = r.Clone()
		if r.ID <= 0 || seen[r.ID] {
			r.ID = c.ids.NextID()
			r.LinkedItems = nil
		}
		seen[r.ID] = true
		adopted = append(adopted, r)
	}
	return adopted
}

// Document returns a deep copy of the campaign in its persisted form.
func (c *Campaign) Document() *world.Document {
	doc := &world.Document{
		ID:           c.id,
		Name:         c.name,
		Description:  c.description,
		CreatedAt:    c.createdAt,
		LastModified: c.lastModified,
		Records:      make(map[world.Category][]*world.Record, len(c.stores)),
	}
	for _, s := range c.stores {
		doc.Records[s.Category()] = s.Records()
	}
	return doc
}

func (c *Campaign) touch() {
	c.lastModified = world.DateOf(c.now())
	if c.onChange != nil {
		c.onChange(c)
	}
}
