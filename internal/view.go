package internal

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Snapshot is a read-only view over a target.
// It always reflects the current state of the target and every value it hands out is a copy.
type Snapshot struct {
	target *Target
	prefix string
}

func NewSnapshot(t *Target) Snapshot {
	return Snapshot{target: t}
}

// At returns the read-only view rooted at path.
func (s Snapshot) At(path string) Snapshot {
	return Snapshot{target: s.target, prefix: joinPath(s.prefix, path)}
}

// Get reads the value at path relative to the view, an empty path reads the view itself.
func (s Snapshot) Get(path string) gjson.Result {
	return s.target.read(joinPath(s.prefix, path))
}

func (s Snapshot) Exists(path string) bool {
	return s.Get(path).Exists()
}

// Raw returns the JSON encoding of the view.
func (s Snapshot) Raw() []byte {
	if s.prefix == "" {
		return s.target.bytes()
	}

	return []byte(s.target.read(s.prefix).Raw)
}

func (s Snapshot) String() string {
	return string(s.Raw())
}

// Decode unmarshals the view into v.
func (s Snapshot) Decode(v any) error {
	raw := s.Raw()
	if len(raw) == 0 {
		return fmt.Errorf("%w %q: no value", ErrInvalidPath, s.prefix)
	}

	return json.Unmarshal(raw, v)
}

// Draft is the writable view handed to event handlers.
// Writes are queued as jobs on the store's scheduler and applied, in order, once the handler returns.
// Reads go to the committed state, so they do not observe writes queued by the running handler.
type Draft struct {
	store  *Store
	prefix string
}

func newDraft(s *Store) *Draft {
	return &Draft{store: s}
}

// At returns the writable view rooted at path.
func (d *Draft) At(path string) *Draft {
	return &Draft{store: d.store, prefix: joinPath(d.prefix, path)}
}

func (d *Draft) Get(path string) gjson.Result {
	return d.store.target.read(joinPath(d.prefix, path))
}

// Set queues a write of value at path.
func (d *Draft) Set(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("evstore: encode value for %q: %w", path, err)
	}

	return d.SetRaw(path, raw)
}

// SetRaw queues a write of the raw JSON value at path.
func (d *Draft) SetRaw(path string, raw []byte) error {
	full, err := d.path(path)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("evstore: invalid JSON value for %q", full)
	}

	raw = append([]byte(nil), raw...)
	return d.post(func(t *Target) error {
		return t.setRaw(full, raw)
	})
}

// Delete queues the removal of path.
func (d *Draft) Delete(path string) error {
	full, err := d.path(path)
	if err != nil {
		return err
	}

	return d.post(func(t *Target) error {
		return t.delete(full)
	})
}

// Append queues the append of value to the array at path.
// A missing path is created as a one element array.
func (d *Draft) Append(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("evstore: encode value for %q: %w", path, err)
	}

	full, err := d.path(path)
	if err != nil {
		return err
	}

	return d.post(func(t *Target) error {
		cur := t.get(full)
		switch {
		case !cur.Exists():
			return t.setRaw(full, append(append([]byte("["), raw...), ']'))
		case !cur.IsArray():
			return fmt.Errorf("evstore: cannot append to %s value at %q", cur.Type, full)
		}

		return t.setRaw(full+".-1", raw)
	})
}

// Add queues an increment of the number at path by delta.
// The sum is computed when the job is applied, so several Adds in one handler accumulate.
// A missing path counts as zero.
func (d *Draft) Add(path string, delta float64) error {
	return d.Update(path, func(cur gjson.Result) (any, error) {
		if cur.Exists() && cur.Type != gjson.Number {
			return nil, fmt.Errorf("evstore: cannot add to %s value at %q", cur.Type, joinPath(d.prefix, path))
		}

		return cur.Float() + delta, nil
	})
}

// Update queues a write of fn's result at path.
// fn runs when the job is applied and receives the value at path at that moment.
// Reads made from fn through a Draft or a Snapshot see the state committed before the flush.
func (d *Draft) Update(path string, fn func(cur gjson.Result) (any, error)) error {
	full, err := d.path(path)
	if err != nil {
		return err
	}

	return d.post(func(t *Target) error {
		v, err := fn(t.get(full))
		if err != nil {
			return err
		}

		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("evstore: encode value for %q: %w", full, err)
		}

		return t.setRaw(full, raw)
	})
}

func (d *Draft) path(path string) (string, error) {
	full := joinPath(d.prefix, path)
	if full == "" {
		return "", fmt.Errorf("%w: the root cannot be replaced", ErrInvalidPath)
	}

	return full, nil
}

func (d *Draft) post(fn func(t *Target) error) error {
	t := d.store.target
	return d.store.post(func() error { return fn(t) })
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	default:
		return prefix + "." + path
	}
}
