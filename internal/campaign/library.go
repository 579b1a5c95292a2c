package campaign

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dyluth/tome/internal/persist"
	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
	"go.uber.org/zap"
)

// Library is the list of campaigns of one user plus the active selection. Every change
// to the list or to a campaign in it is handed to a persist.Writer; failed saves are
// logged and raised as an error notification without undoing anything in memory.
//
// Campaign state is single-threaded; only the notification is touched from the
// writer's goroutine.
type Library struct {
	campaigns []*Campaign
	active    world.CampaignID

	backend persist.Backend
	writer  *persist.Writer
	logger  *zap.Logger
	now     func() time.Time
	ttl     time.Duration

	mu     sync.Mutex
	notice *store.Notification
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLogger sets the library's logger.
func WithLogger(logger *zap.Logger) LibraryOption {
	return func(l *Library) { l.logger = logger }
}

// WithLibraryClock sets the time source passed to every campaign.
func WithLibraryClock(now func() time.Time) LibraryOption {
	return func(l *Library) { l.now = now }
}

// WithLibraryNotificationTTL sets how long notifications stay visible.
func WithLibraryNotificationTTL(ttl time.Duration) LibraryOption {
	return func(l *Library) { l.ttl = ttl }
}

// NewLibrary returns an empty library persisting to backend. Call Load to read the
// stored campaigns.
func NewLibrary(backend persist.Backend, opts ...LibraryOption) *Library {
	l := &Library{
		backend: backend,
		logger:  zap.NewNop(),
		now:     time.Now,
		ttl:     store.DefaultNotificationTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.writer = persist.NewWriter(backend,
		persist.WithLogger(l.logger),
		persist.WithErrorHandler(l.persistFailed))
	return l
}

func (l *Library) campaignOptions() []Option {
	return []Option{
		WithClock(l.now),
		WithNotificationTTL(l.ttl),
		WithChangeHandler(func(*Campaign) { l.Persist() }),
	}
}

// Load replaces the in-memory list with the stored one. The first campaign becomes
// active.
func (l *Library) Load(ctx context.Context) error {
	docs, err := l.backend.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load campaigns: %w", err)
	}

	l.campaigns = l.campaigns[:0]
	seen := make(map[world.CampaignID]bool)
	for _, doc := range docs {
		if doc.ID == "" || seen[doc.ID] {
			l.logger.Warn("campaign without a unique id, assigning a new one",
				zap.String("campaign_id", string(doc.ID)),
				zap.String("name", doc.Name))
			doc.ID = world.NewCampaignID()
		}
		seen[doc.ID] = true
		l.campaigns = append(l.campaigns, FromDocument(doc, l.campaignOptions()...))
	}

	l.active = ""
	if len(l.campaigns) > 0 {
		l.active = l.campaigns[0].ID()
	}
	l.logger.Debug("loaded campaigns", zap.Int("campaigns", len(l.campaigns)))
	return nil
}

// Create adds a campaign, seeded with one starter record per category when seed is
// true, and makes it active.
func (l *Library) Create(name, description string, seedRecords bool) (*Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("campaign name is required")
	}

	c := New(name, description, l.campaignOptions()...)
	if seedRecords {
		seed(c)
	}
	l.campaigns = append(l.campaigns, c)
	l.active = c.ID()
	l.logger.Info("campaign created",
		zap.String("campaign_id", string(c.ID())),
		zap.String("name", name),
		zap.Bool("seeded", seedRecords))
	l.Persist()
	return c, nil
}

// Delete removes a campaign. Deleting the active campaign activates the first remaining
// one. Deleting a missing campaign is a no-op returning false.
func (l *Library) Delete(id world.CampaignID) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	name := l.campaigns[i].Name()
	l.campaigns = append(l.campaigns[:i:i], l.campaigns[i+1:]...)
	if l.active == id {
		l.active = ""
		if len(l.campaigns) > 0 {
			l.active = l.campaigns[0].ID()
		}
	}
	l.notify(fmt.Sprintf("Campaign %q deleted", name), store.NotificationSuccess)
	l.logger.Info("campaign deleted", zap.String("campaign_id", string(id)))
	l.Persist()
	return true
}

// Get returns the campaign with id.
func (l *Library) Get(id world.CampaignID) (*Campaign, bool) {
	if i := l.index(id); i >= 0 {
		return l.campaigns[i], true
	}
	return nil, false
}

// List returns the campaigns in list order.
func (l *Library) List() []*Campaign {
	return append([]*Campaign(nil), l.campaigns...)
}

// SetActive makes the campaign with id the active one.
func (l *Library) SetActive(id world.CampaignID) error {
	if l.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}
	l.active = id
	return nil
}

// Active returns the active campaign, if any.
func (l *Library) Active() (*Campaign, bool) {
	if l.active == "" {
		return nil, false
	}
	return l.Get(l.active)
}

// Import appends a campaign built from doc. The exchange package has already checked
// its shape and given it a fresh id; an id that still collides is replaced.
func (l *Library) Import(doc *world.Document) (*Campaign, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if l.index(doc.ID) >= 0 {
		doc = doc.Clone()
		doc.ID = world.NewCampaignID()
	}

	c := FromDocument(doc, l.campaignOptions()...)
	l.campaigns = append(l.campaigns, c)
	if l.active == "" {
		l.active = c.ID()
	}
	l.notify(fmt.Sprintf("Campaign %q imported", c.Name()), store.NotificationSuccess)
	l.logger.Info("campaign imported",
		zap.String("campaign_id", string(c.ID())),
		zap.Int("records", c.RecordCount()))
	l.Persist()
	return c, nil
}

// Export returns the persisted form of one campaign.
func (l *Library) Export(id world.CampaignID) (*world.Document, error) {
	c, ok := l.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}
	return c.Document(), nil
}

// Persist snapshots every campaign and schedules a save. It returns immediately.
func (l *Library) Persist() {
	docs := make([]*world.Document, len(l.campaigns))
	for i, c := range l.campaigns {
		docs[i] = c.Document()
	}
	l.writer.Request(docs)
}

// Flush waits for pending saves and returns the last save error.
func (l *Library) Flush(ctx context.Context) error {
	return l.writer.Flush(ctx)
}

// Notification returns the pending library notification unless it has expired.
func (l *Library) Notification() (store.Notification, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.notice == nil || !l.now().Before(l.notice.ExpiresAt) {
		return store.Notification{}, false
	}
	return *l.notice, true
}

func (l *Library) notify(message string, kind store.NotificationKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notice = &store.Notification{
		Message:   message,
		Kind:      kind,
		ExpiresAt: l.now().Add(l.ttl),
	}
}

func (l *Library) persistFailed(err error) {
	l.notify(fmt.Sprintf("Failed to save campaigns: %v", err), store.NotificationError)
}

func (l *Library) index(id world.CampaignID) int {
	for i, c := range l.campaigns {
		if c.ID() == id {
			return i
		}
	}
	return -1
}
