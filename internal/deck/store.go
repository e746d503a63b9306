package deck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deckworks/deck-core/internal/bus"
)

// Logger is the minimal logging interface the store needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ActionValidator checks a plugin action config against the plugin's
// declared schema. The plugin registry implements this.
type ActionValidator interface {
	ValidateConfig(pluginID string, config map[string]any) error
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// KeyCount is the number of button slots per page, from device config.
	KeyCount int

	// Bus receives mutation events. Nil disables publication.
	Bus bus.MessageBus

	// Validator checks plugin action configs on SetButton. Nil skips
	// schema validation (structural validation still applies).
	Validator ActionValidator

	Logger Logger
}

// Store owns the deck configuration: pages, buttons, active page and
// brightness. Every mutation is validated, persisted through the
// repository, and only then reflected in memory and returned to the
// caller, so an acknowledged change survives a crash. Reads return deep
// copies; callers can never mutate store-owned state.
type Store struct {
	mu        sync.RWMutex
	repo      Repository
	eventBus  bus.MessageBus
	validator ActionValidator
	logger    Logger
	keyCount  int

	snap    *Snapshot
	pending []pendingEvent
}

// pendingEvent is a bus event queued under the write lock for delivery
// after the lock is released.
type pendingEvent struct {
	topic string
	event any
}

// NewStore creates a Store. Call Load before using it.
func NewStore(repo Repository, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	keyCount := opts.KeyCount
	if keyCount <= 0 {
		keyCount = 6
	}
	return &Store{
		repo:      repo,
		eventBus:  opts.Bus,
		validator: opts.Validator,
		logger:    logger,
		keyCount:  keyCount,
	}
}

// KeyCount returns the number of slots per page.
func (s *Store) KeyCount() int {
	return s.keyCount
}

// Load reads the persisted snapshot. An empty database is seeded with a
// single default page so the deck is never page-less.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading deck state: %w", err)
	}

	if len(snap.Pages) == 0 {
		now := time.Now().UTC()
		page := Page{
			ID:         uuid.New().String(),
			Title:      "Main",
			Position:   0,
			Background: Black,
			TextColor:  White,
			Buttons:    make(map[int]*Button),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		snap.Pages = []Page{page}
		snap.ActivePageID = page.ID
		if err := s.repo.Save(ctx, snap); err != nil {
			return fmt.Errorf("seeding default page: %w", err)
		}
		s.logger.Info("seeded default page", "page_id", page.ID)
	}

	// Repair a dangling active-page reference rather than failing startup.
	if s.indexOf(snap, snap.ActivePageID) < 0 {
		snap.ActivePageID = snap.Pages[0].ID
		if err := s.repo.Save(ctx, snap); err != nil {
			return fmt.Errorf("repairing active page: %w", err)
		}
		s.logger.Warn("active page missing, reset to first page", "page_id", snap.ActivePageID)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("deck state loaded",
		"pages", len(snap.Pages),
		"active_page", snap.ActivePageID,
		"brightness", snap.Brightness)
	return nil
}

// commit persists the candidate snapshot and installs it on success.
// The caller holds the write lock. On persistence failure the in-memory
// state is untouched, so a rejected mutation leaves no trace.
func (s *Store) commit(ctx context.Context, candidate *Snapshot) error {
	if err := s.repo.Save(ctx, candidate); err != nil {
		return fmt.Errorf("persisting deck state: %w", err)
	}
	s.snap = candidate
	return nil
}

// publish queues an event while the caller holds the write lock. The
// matching deferred flushEvents delivers it after the lock is released,
// so a slow bus subscriber stalls only the mutating caller, never every
// store user.
func (s *Store) publish(topic string, event any) {
	if s.eventBus != nil {
		s.pending = append(s.pending, pendingEvent{topic: topic, event: event})
	}
}

// flushEvents delivers queued events outside the write lock. Mutations
// are serialized, so the queue order matches the mutation order even
// when a concurrent mutator flushes events queued by another.
func (s *Store) flushEvents() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, p := range pending {
		s.eventBus.Publish(p.topic, p.event)
	}
}

// indexOf returns the index of a page in the snapshot, or -1.
func (s *Store) indexOf(snap *Snapshot, pageID string) int {
	for i := range snap.Pages {
		if snap.Pages[i].ID == pageID {
			return i
		}
	}
	return -1
}

// ListPages returns all pages in display order as deep copies.
func (s *Store) ListPages() []Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]Page, len(s.snap.Pages))
	for i := range s.snap.Pages {
		pages[i] = *s.snap.Pages[i].DeepCopy()
	}
	return pages
}

// GetPage returns a deep copy of the page with the given ID.
func (s *Store) GetPage(pageID string) (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	return s.snap.Pages[i].DeepCopy(), nil
}

// CreatePage appends a new empty page and returns a copy of it.
func (s *Store) CreatePage(ctx context.Context, title string) (*Page, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}

	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	page := Page{
		ID:         uuid.New().String(),
		Title:      title,
		Position:   len(s.snap.Pages),
		Background: Black,
		TextColor:  White,
		Buttons:    make(map[int]*Button),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	candidate := s.snap.DeepCopy()
	candidate.Pages = append(candidate.Pages, page)
	if err := s.commit(ctx, candidate); err != nil {
		return nil, err
	}

	s.logger.Info("page created", "page_id", page.ID, "title", title)
	s.publish(bus.TopicPage, bus.PageEvent{Type: bus.PageCreated, PageID: page.ID})
	return page.DeepCopy(), nil
}

// DeletePage removes a page. The last remaining page cannot be deleted.
// If the deleted page was active, the first remaining page becomes
// active and a PageActivated event follows the PageDeleted.
func (s *Store) DeletePage(ctx context.Context, pageID string) error {
	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if len(s.snap.Pages) == 1 {
		return ErrLastPage
	}

	candidate := s.snap.DeepCopy()
	candidate.Pages = append(candidate.Pages[:i], candidate.Pages[i+1:]...)
	for pos := range candidate.Pages {
		candidate.Pages[pos].Position = pos
	}

	activated := ""
	if candidate.ActivePageID == pageID {
		candidate.ActivePageID = candidate.Pages[0].ID
		activated = candidate.ActivePageID
	}

	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.logger.Info("page deleted", "page_id", pageID)
	s.publish(bus.TopicPage, bus.PageEvent{Type: bus.PageDeleted, PageID: pageID})
	if activated != "" {
		s.publish(bus.TopicPage, bus.PageEvent{Type: bus.PageActivated, PageID: activated})
	}
	return nil
}

// RenamePage changes a page title.
func (s *Store) RenamePage(ctx context.Context, pageID, title string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}

	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}

	candidate := s.snap.DeepCopy()
	candidate.Pages[i].Title = title
	candidate.Pages[i].UpdatedAt = time.Now().UTC()
	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.publish(bus.TopicPage, bus.PageEvent{Type: bus.PageUpdated, PageID: pageID})
	return nil
}

// SetPageColors changes a page's default background and text colours.
// Buttons without colour overrides re-render with the new defaults.
func (s *Store) SetPageColors(ctx context.Context, pageID string, background, textColor RGB) error {
	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}

	candidate := s.snap.DeepCopy()
	candidate.Pages[i].Background = background
	candidate.Pages[i].TextColor = textColor
	candidate.Pages[i].UpdatedAt = time.Now().UTC()
	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.publish(bus.TopicPage, bus.PageEvent{Type: bus.PageUpdated, PageID: pageID})
	return nil
}

// GetButton returns a deep copy of the button at the given slot.
func (s *Store) GetButton(pageID string, slot int) (*Button, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if err := ValidateSlot(slot, s.keyCount); err != nil {
		return nil, err
	}
	b, ok := s.snap.Pages[i].Buttons[slot]
	if !ok {
		return nil, fmt.Errorf("%w: %s slot %d", ErrButtonNotFound, pageID, slot)
	}
	return b.DeepCopy(), nil
}

// SetButton creates or replaces the button at the given slot. Plugin
// actions are checked against the plugin's declared schema before
// anything is persisted; a button with an invalid config is never stored.
func (s *Store) SetButton(ctx context.Context, pageID string, slot int, button *Button) error {
	if err := ValidateButton(button); err != nil {
		return err
	}
	if button.Action != nil && button.Action.Type == ActionPlugin && s.validator != nil {
		if err := s.validator.ValidateConfig(button.Action.PluginID, button.Action.Config); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidButton, err)
		}
	}

	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if err := ValidateSlot(slot, s.keyCount); err != nil {
		return err
	}

	candidate := s.snap.DeepCopy()
	candidate.Pages[i].Buttons[slot] = button.DeepCopy()
	candidate.Pages[i].UpdatedAt = time.Now().UTC()
	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.logger.Debug("button set", "page_id", pageID, "slot", slot, "label", button.Label)
	s.publish(bus.TopicButton, bus.ButtonEvent{Type: bus.ButtonSet, PageID: pageID, Slot: slot})
	return nil
}

// ClearButton removes the button at the given slot, leaving it empty.
func (s *Store) ClearButton(ctx context.Context, pageID string, slot int) error {
	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if err := ValidateSlot(slot, s.keyCount); err != nil {
		return err
	}
	if _, ok := s.snap.Pages[i].Buttons[slot]; !ok {
		return fmt.Errorf("%w: %s slot %d", ErrButtonNotFound, pageID, slot)
	}

	candidate := s.snap.DeepCopy()
	delete(candidate.Pages[i].Buttons, slot)
	candidate.Pages[i].UpdatedAt = time.Now().UTC()
	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.publish(bus.TopicButton, bus.ButtonEvent{Type: bus.ButtonCleared, PageID: pageID, Slot: slot})
	return nil
}

// SwapButtons exchanges the contents of two slots on the same page.
// Either slot may be empty; swapping a button with an empty slot moves
// it. Swapping two empty slots is a no-op and reports ErrButtonNotFound.
func (s *Store) SwapButtons(ctx context.Context, pageID string, slotA, slotB int) error {
	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.snap, pageID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if err := ValidateSlot(slotA, s.keyCount); err != nil {
		return err
	}
	if err := ValidateSlot(slotB, s.keyCount); err != nil {
		return err
	}

	buttons := s.snap.Pages[i].Buttons
	_, hasA := buttons[slotA]
	_, hasB := buttons[slotB]
	if !hasA && !hasB {
		return fmt.Errorf("%w: %s slots %d and %d", ErrButtonNotFound, pageID, slotA, slotB)
	}

	candidate := s.snap.DeepCopy()
	cb := candidate.Pages[i].Buttons
	a, b := cb[slotA], cb[slotB]
	delete(cb, slotA)
	delete(cb, slotB)
	if b != nil {
		cb[slotA] = b
	}
	if a != nil {
		cb[slotB] = a
	}
	candidate.Pages[i].UpdatedAt = time.Now().UTC()
	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.publish(bus.TopicButton, bus.ButtonEvent{
		Type:      bus.ButtonSwapped,
		PageID:    pageID,
		Slot:      slotA,
		OtherSlot: slotB,
	})
	return nil
}

// MoveButton relocates a button to the first free slot on another page
// and returns the destination slot. A full destination page rejects the
// move with ErrNoFreeSlot and nothing changes.
func (s *Store) MoveButton(ctx context.Context, srcPageID string, srcSlot int, dstPageID string) (int, error) {
	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.indexOf(s.snap, srcPageID)
	if src < 0 {
		return 0, fmt.Errorf("%w: %s", ErrPageNotFound, srcPageID)
	}
	dst := s.indexOf(s.snap, dstPageID)
	if dst < 0 {
		return 0, fmt.Errorf("%w: %s", ErrPageNotFound, dstPageID)
	}
	if err := ValidateSlot(srcSlot, s.keyCount); err != nil {
		return 0, err
	}
	if _, ok := s.snap.Pages[src].Buttons[srcSlot]; !ok {
		return 0, fmt.Errorf("%w: %s slot %d", ErrButtonNotFound, srcPageID, srcSlot)
	}

	dstSlot := -1
	for slot := 0; slot < s.keyCount; slot++ {
		if _, occupied := s.snap.Pages[dst].Buttons[slot]; !occupied {
			dstSlot = slot
			break
		}
	}
	if dstSlot < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoFreeSlot, dstPageID)
	}

	candidate := s.snap.DeepCopy()
	button := candidate.Pages[src].Buttons[srcSlot]
	delete(candidate.Pages[src].Buttons, srcSlot)
	candidate.Pages[dst].Buttons[dstSlot] = button
	now := time.Now().UTC()
	candidate.Pages[src].UpdatedAt = now
	candidate.Pages[dst].UpdatedAt = now
	if err := s.commit(ctx, candidate); err != nil {
		return 0, err
	}

	s.logger.Debug("button moved",
		"src_page", srcPageID, "src_slot", srcSlot,
		"dst_page", dstPageID, "dst_slot", dstSlot)
	s.publish(bus.TopicButton, bus.ButtonEvent{
		Type:        bus.ButtonMoved,
		PageID:      srcPageID,
		Slot:        srcSlot,
		OtherPageID: dstPageID,
		OtherSlot:   dstSlot,
	})
	return dstSlot, nil
}

// ActivePage returns a deep copy of the currently active page.
func (s *Store) ActivePage() *Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(s.snap, s.snap.ActivePageID)
	return s.snap.Pages[i].DeepCopy()
}

// Activate makes the given page current.
func (s *Store) Activate(ctx context.Context, pageID string) error {
	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(s.snap, pageID) < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if s.snap.ActivePageID == pageID {
		return nil
	}

	candidate := s.snap.DeepCopy()
	candidate.ActivePageID = pageID
	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.publish(bus.TopicPage, bus.PageEvent{Type: bus.PageActivated, PageID: pageID})
	return nil
}

// NextPage activates the page after the current one, wrapping to the
// first page past the end, and returns a copy of the new active page.
func (s *Store) NextPage(ctx context.Context) (*Page, error) {
	return s.step(ctx, 1)
}

// PrevPage activates the page before the current one, wrapping to the
// last page before the start, and returns a copy of the new active page.
func (s *Store) PrevPage(ctx context.Context) (*Page, error) {
	return s.step(ctx, -1)
}

func (s *Store) step(ctx context.Context, delta int) (*Page, error) {
	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.snap.Pages)
	i := s.indexOf(s.snap, s.snap.ActivePageID)
	next := (i + delta + n) % n
	if next == i {
		return s.snap.Pages[i].DeepCopy(), nil
	}

	candidate := s.snap.DeepCopy()
	candidate.ActivePageID = candidate.Pages[next].ID
	if err := s.commit(ctx, candidate); err != nil {
		return nil, err
	}

	s.publish(bus.TopicPage, bus.PageEvent{Type: bus.PageActivated, PageID: s.snap.ActivePageID})
	return s.snap.Pages[next].DeepCopy(), nil
}

// Brightness returns the configured backlight level.
func (s *Store) Brightness() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Brightness
}

// SetBrightness persists a new backlight level. The device synchronizer
// picks the change up from the bus and pushes it to the panel.
func (s *Store) SetBrightness(ctx context.Context, level int) error {
	if err := ValidateBrightness(level); err != nil {
		return err
	}

	defer s.flushEvents()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Brightness == level {
		return nil
	}

	candidate := s.snap.DeepCopy()
	candidate.Brightness = level
	if err := s.commit(ctx, candidate); err != nil {
		return err
	}

	s.publish(bus.TopicBrightness, bus.BrightnessEvent{Level: level})
	return nil
}

// CurrentSnapshot returns a deep copy of the full deck state.
func (s *Store) CurrentSnapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.DeepCopy()
}
