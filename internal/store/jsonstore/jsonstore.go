package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/kv"
)

// JSON encoding of the list, stored under a single key of a kv.Store.
// The id counter lives next to it under "<key>.seq".

const (
	DefaultKey = "todos"
	seqSuffix  = ".seq"
)

// Snapshot is what a successful Load returns.
type Snapshot struct {
	Items []model.Item
	// Next is the id the next created item should receive.
	Next int
}

type Store struct {
	kv  kv.Store
	key string
}

type Option func(*Store)

// WithKey stores the list under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{kv: backend, key: DefaultKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string    { return s.key }
func (s *Store) SeqKey() string { return s.key + seqSuffix }

// Load reads the list. ok is false when nothing was ever saved.
// A stored value that does not decode yields a *HydrationError; a backend
// failure yields a *PersistenceError.
func (s *Store) Load() (snap Snapshot, ok bool, err error) {
	b, err := s.kv.Get(s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Snapshot{Items: []model.Item{}, Next: s.loadSeq(1)}, false, nil
		}
		return Snapshot{}, false, &PersistenceError{Op: "load", Key: s.key, Err: err}
	}
	items, err := decodeItems(b)
	if err != nil {
		return Snapshot{}, false, &HydrationError{Key: s.key, Err: err}
	}
	return Snapshot{Items: items, Next: s.loadSeq(model.MaxID(items) + 1)}, true, nil
}

// Save replaces the stored list and counter. The list itself is always
// written in one Set.
func (s *Store) Save(items []model.Item, next int) error {
	if items == nil {
		items = []model.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return &PersistenceError{Op: "save", Key: s.key, Err: fmt.Errorf("json marshal: %w", err)}
	}
	seq := []byte(strconv.Itoa(next))

	if batcher, ok := s.kv.(kv.Batcher); ok {
		err := batcher.SetBatch([]kv.Entry{
			{Key: s.key, Value: b},
			{Key: s.SeqKey(), Value: seq},
		})
		if err != nil {
			return &PersistenceError{Op: "save", Key: s.key, Err: err}
		}
		return nil
	}
	if err := s.kv.Set(s.key, b); err != nil {
		return &PersistenceError{Op: "save", Key: s.key, Err: err}
	}
	if err := s.kv.Set(s.SeqKey(), seq); err != nil {
		return &PersistenceError{Op: "save", Key: s.SeqKey(), Err: err}
	}
	return nil
}

// loadSeq returns the stored counter, never below floor. An unreadable
// counter is ignored since the items alone give a safe value.
func (s *Store) loadSeq(floor int) int {
	b, err := s.kv.Get(s.SeqKey())
	if err != nil {
		return floor
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || n < floor {
		return floor
	}
	return n
}

type storedItem struct {
	ID        *int    `json:"id"`
	Text      *string `json:"text"`
	Completed bool    `json:"completed"`
}

func decodeItems(b []byte) ([]model.Item, error) {
	var raw []*storedItem
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	items := make([]model.Item, 0, len(raw))
	for i, r := range raw {
		switch {
		case r == nil:
			return nil, fmt.Errorf("item %d: null entry", i)
		case r.ID == nil:
			return nil, fmt.Errorf("item %d: missing id", i)
		case r.Text == nil:
			return nil, fmt.Errorf("item %d: missing text", i)
		}
		items = append(items, model.Item{ID: *r.ID, Text: *r.Text, Completed: r.Completed})
	}
	return items, nil
}
