// Package todos owns the in-memory list and keeps its stored copy in sync.
//
// A Store is driven from a single goroutine (one user action at a time) and
// is not safe for concurrent use. Every persisting mutation builds a new
// slice, swaps it in, saves, and only then notifies subscribers.
package todos

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

// Persister is the durable side of the store.
type Persister interface {
	Load() (jsonstore.Snapshot, bool, error)
	Save(items []model.Item, next int) error
}

// Observer receives a callback for every completed operation.
type Observer interface {
	Mutated(op string, count int)
	PersistFailed(op string, err error)
	Hydrated(count int, err error)
}

type nopObserver struct{}

func (nopObserver) Mutated(string, int)        {}
func (nopObserver) PersistFailed(string, error) {}
func (nopObserver) Hydrated(int, error)         {}

// Operation names passed to observers and logs.
const (
	OpHydrate = "hydrate"
	OpAdd     = "add"
	OpDelete  = "delete"
	OpToggle  = "toggle"
	OpEdit    = "edit_mode"
	OpUpdate  = "update_text"
)

type Store struct {
	items []model.Item
	next  int

	persister Persister
	log       *zap.Logger
	observer  Observer
	session   string

	subs   map[int]func([]model.Item)
	subSeq int

	// loadErr is set while the stored list could not be read. Saves are
	// refused until a later Hydrate succeeds.
	loadErr *jsonstore.PersistenceError
}

// ErrNotLoaded is wrapped in the *jsonstore.PersistenceError returned by
// mutations after Hydrate failed to read the backend.
var ErrNotLoaded = errors.New("stored list was not read, refusing to overwrite it")

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// New returns an empty store. Call Hydrate once before the first render.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		items:     []model.Item{},
		next:      1,
		persister: p,
		log:       zap.NewNop(),
		observer:  nopObserver{},
		session:   uuid.NewString(),
		subs:      make(map[int]func([]model.Item)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("session", s.session))
	return s
}

// Session identifies this store instance in logs.
func (s *Store) Session() string { return s.session }

// Hydrate replaces the list with the stored one. Missing data gives an empty
// list and a nil error. Malformed data also gives an empty list and returns
// the *jsonstore.HydrationError; the next save replaces the bad value.
// An unreadable backend gives an empty list too, but the store then keeps
// changes in memory only and every mutation returns a *jsonstore.PersistenceError
// wrapping ErrNotLoaded until Hydrate succeeds.
func (s *Store) Hydrate() error {
	snap, _, err := s.persister.Load()
	if err != nil {
		s.items = []model.Item{}
		s.next = 1
		s.loadErr = nil
		s.observer.Hydrated(0, err)
		var herr *jsonstore.HydrationError
		var perr *jsonstore.PersistenceError
		switch {
		case errors.As(err, &herr):
			s.log.Warn("stored list is malformed, starting empty", zap.Error(err))
		case errors.As(err, &perr):
			s.loadErr = perr
			s.log.Warn("could not read stored list, saving disabled", zap.Error(err))
		default:
			s.loadErr = &jsonstore.PersistenceError{Op: "load", Err: err}
			s.log.Warn("could not read stored list, saving disabled", zap.Error(err))
		}
		s.notify()
		return err
	}
	s.loadErr = nil

	items, next, rekeyed := dedupe(snap.Items, snap.Next)
	s.items = items
	s.next = next
	s.observer.Hydrated(len(items), nil)
	s.log.Debug("hydrated", zap.Int("count", len(items)), zap.Int("next", next))

	if rekeyed > 0 {
		s.log.Warn("re-keyed items with duplicate ids", zap.Int("rekeyed", rekeyed))
		if err := s.save(OpHydrate); err != nil {
			s.notify()
			return err
		}
	}
	s.notify()
	return nil
}

// dedupe keeps the first occurrence of every id and hands later duplicates
// fresh ids, so the uniqueness invariant holds for legacy data too.
func dedupe(in []model.Item, next int) ([]model.Item, int, int) {
	if m := model.MaxID(in) + 1; next < m {
		next = m
	}
	seen := make(map[int]bool, len(in))
	out := make([]model.Item, 0, len(in))
	rekeyed := 0
	for _, it := range in {
		if seen[it.ID] {
			it.ID = next
			next++
			rekeyed++
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out, next, rekeyed
}

// Add appends a new item. Blank text is a no-op.
func (s *Store) Add(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	it := model.Item{ID: s.next, Text: text}
	items := make([]model.Item, 0, len(s.items)+1)
	items = append(items, s.items...)
	items = append(items, it)

	s.items = items
	s.next++
	s.log.Debug("added", zap.Int("id", it.ID))
	return s.commit(OpAdd)
}

// DeleteByID removes the item with id. Unknown ids are a no-op.
func (s *Store) DeleteByID(id int) error {
	i := model.IndexOf(s.items, id)
	if i < 0 {
		return nil
	}
	items := make([]model.Item, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)

	s.items = items
	s.log.Debug("deleted", zap.Int("id", id))
	return s.commit(OpDelete)
}

// ToggleCompleted flips the completed flag. Unknown ids are a no-op.
func (s *Store) ToggleCompleted(id int) error {
	items, ok := s.replace(id, func(it *model.Item) { it.Completed = !it.Completed })
	if !ok {
		return nil
	}
	s.items = items
	s.log.Debug("toggled", zap.Int("id", id))
	return s.commit(OpToggle)
}

// SetEditMode marks an item as being edited. The flag is session-only, so
// nothing is written to storage; subscribers are still notified.
func (s *Store) SetEditMode(id int, editing bool) error {
	items, ok := s.replace(id, func(it *model.Item) { it.EditMode = editing })
	if !ok {
		return nil
	}
	s.items = items
	s.observer.Mutated(OpEdit, len(items))
	s.notify()
	return nil
}

// UpdateText commits an edit: the text is replaced and edit mode cleared.
// Unknown ids are a no-op.
func (s *Store) UpdateText(id int, text string) error {
	items, ok := s.replace(id, func(it *model.Item) {
		it.Text = text
		it.EditMode = false
	})
	if !ok {
		return nil
	}
	s.items = items
	s.log.Debug("updated text", zap.Int("id", id))
	return s.commit(OpUpdate)
}

// Items returns a snapshot of the list.
func (s *Store) Items() []model.Item { return model.Clone(s.items) }

// Item returns the item with id.
func (s *Store) Item(id int) (model.Item, bool) {
	i := model.IndexOf(s.items, id)
	if i < 0 {
		return model.Item{}, false
	}
	return s.items[i], true
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Stats() (done, pending int) { return model.Stats(s.items) }

// Subscribe registers fn to receive a snapshot after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func([]model.Item)) func() {
	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

// replace returns a copy of the list with fn applied to the item with id.
func (s *Store) replace(id int, fn func(*model.Item)) ([]model.Item, bool) {
	i := model.IndexOf(s.items, id)
	if i < 0 {
		return nil, false
	}
	items := model.Clone(s.items)
	fn(&items[i])
	return items, true
}

// commit persists the swapped-in list and then notifies. A failed save
// leaves memory as is.
func (s *Store) commit(op string) error {
	err := s.save(op)
	s.observer.Mutated(op, len(s.items))
	s.notify()
	return err
}

// Loaded reports whether the last Hydrate read the backend, so saves are
// allowed.
func (s *Store) Loaded() bool { return s.loadErr == nil }

func (s *Store) save(op string) error {
	if s.loadErr != nil {
		err := &jsonstore.PersistenceError{Op: "save", Key: s.loadErr.Key, Err: ErrNotLoaded}
		s.observer.PersistFailed(op, err)
		s.log.Warn("stored list was not read, keeping change in memory",
			zap.String("op", op), zap.Error(s.loadErr))
		return err
	}
	if err := s.persister.Save(s.items, s.next); err != nil {
		s.observer.PersistFailed(op, err)
		s.log.Warn("persist failed, keeping in-memory list",
			zap.String("op", op), zap.Int("count", len(s.items)), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) notify() {
	for _, fn := range s.subs {
		fn(model.Clone(s.items))
	}
}
