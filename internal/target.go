package internal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Target is the mutable document backing one store.
// The root is always a JSON object or array, it is mutated in place and never replaced by callers.
type Target struct {
	mu sync.RWMutex

	doc []byte

	// copy of doc the jobs of a flush write to, only touched by the flushing goroutine
	work []byte
}

// Materialize converts initial into a tracked target.
// A nil initial yields an empty object, []byte and json.RawMessage are taken as raw JSON,
// anything else goes through encoding/json (cyclic values are rejected by the encoder).
func Materialize(initial any) (*Target, error) {
	var doc []byte

	switch v := initial.(type) {
	case nil:
		doc = []byte("{}")
	case json.RawMessage:
		doc = append([]byte(nil), v...)
	case []byte:
		doc = append([]byte(nil), v...)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("evstore: materialize state: %w", err)
		}
		doc = b
	}

	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrInvalidRoot)
	}

	root := gjson.ParseBytes(doc)
	switch {
	case root.Type == gjson.Null:
		// zero value of a pointer or map state
		doc = []byte("{}")
	case !root.IsObject() && !root.IsArray():
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRoot, root.Type)
	}

	return &Target{doc: doc}, nil
}

// read returns the value at path, or the whole document for an empty path.
func (t *Target) read(path string) gjson.Result {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if path == "" {
		return gjson.ParseBytes(t.doc)
	}

	return gjson.GetBytes(t.doc, path)
}

// bytes returns a copy of the raw document.
func (t *Target) bytes() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]byte(nil), t.doc...)
}

// begin starts a flush: the mutators below work on a private copy of the document
// and readers keep seeing the committed state until commit.
func (t *Target) begin() {
	t.work = t.bytes()
}

// commit publishes the working copy. No lock is held while jobs run,
// only the swap itself excludes readers.
func (t *Target) commit() {
	t.mu.Lock()
	t.doc = t.work
	t.mu.Unlock()

	t.work = nil
}

// the mutators below must only be called between begin and commit

func (t *Target) setRaw(path string, raw []byte) error {
	doc, err := sjson.SetRawBytes(t.work, path, raw)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPath, path, err)
	}

	t.work = doc
	return nil
}

func (t *Target) delete(path string) error {
	doc, err := sjson.DeleteBytes(t.work, path)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPath, path, err)
	}

	t.work = doc
	return nil
}

// get reads the working copy, so a job sees the writes of the jobs before it.
func (t *Target) get(path string) gjson.Result {
	return gjson.GetBytes(t.work, path)
}
