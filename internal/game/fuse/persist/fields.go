// Package persist converts fusion state to and from a versioned field layout
// and migrates saves written by older schema revisions.
//
// The package is independent of any save-file framework: it writes through the
// FieldWriter and reads through the FieldReader interfaces. Record is the
// in-memory implementation used by tests and by storage backends.
package persist

import (
	"sort"
	"strconv"
	"strings"
)

// FieldWriter is a typed-field serializer.
type FieldWriter interface {
	WriteInt(key string, v int64)
	WriteBool(key string, v bool)
	// WriteStruct scopes fn's writes under key.
	WriteStruct(key string, fn func(w FieldWriter))
	// WriteArray writes n elements under key; fn is called once per index.
	WriteArray(key string, n int, fn func(i int, w FieldWriter))
}

// FieldReader is a typed-field deserializer. Absent fields report ok == false.
type FieldReader interface {
	Has(key string) bool
	ReadInt(key string) (v int64, ok bool)
	ReadBool(key string) (v bool, ok bool)
	// ReadStruct calls fn scoped under key and reports whether any field exists there.
	ReadStruct(key string, fn func(r FieldReader)) bool
	// ReadArray calls fn for each stored element under key, up to max elements,
	// and returns the number of elements visited.
	ReadArray(key string, max int, fn func(i int, r FieldReader)) int
}

// ReadWriter reads and writes the same field scope.
type ReadWriter interface {
	FieldReader
	FieldWriter
}

const lenSuffix = "len"

// Record is a flat map of dotted field paths to integer values.
//
// Booleans are stored as 0/1. An array under key stores its length at
// "key.len" and element i under "key.i". Record is not safe for concurrent use.
type Record struct {
	fields map[string]int64
	dirty  bool
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{fields: make(map[string]int64)}
}

// RecordFromFields returns a Record holding a copy of fields.
//
// Postcondition: the returned Record is clean.
func RecordFromFields(fields map[string]int64) *Record {
	r := NewRecord()
	for k, v := range fields {
		r.fields[k] = v
	}
	return r
}

// Fields returns a copy of the stored fields.
func (r *Record) Fields() map[string]int64 {
	out := make(map[string]int64, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Keys returns every stored key in sorted order.
func (r *Record) Keys() []string {
	out := make([]string, 0, len(r.fields))
	for k := range r.fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dirty reports whether any field was written since creation or the last MarkClean.
func (r *Record) Dirty() bool {
	return r.dirty
}

// MarkClean resets the dirty flag, typically after the record was persisted.
func (r *Record) MarkClean() {
	r.dirty = false
}

// Section returns a scope rooted at name.
func (r *Record) Section(name string) *Scope {
	return &Scope{rec: r, prefix: name}
}

// Scope is a view of a Record under a key prefix. It implements ReadWriter.
type Scope struct {
	rec    *Record
	prefix string
}

var _ ReadWriter = (*Scope)(nil)

func (s *Scope) path(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "." + key
}

func (s *Scope) child(key string) *Scope {
	return &Scope{rec: s.rec, prefix: s.path(key)}
}

// WriteInt stores v at key.
func (s *Scope) WriteInt(key string, v int64) {
	p := s.path(key)
	if old, ok := s.rec.fields[p]; ok && old == v {
		return
	}
	s.rec.fields[p] = v
	s.rec.dirty = true
}

// WriteBool stores v at key as 0 or 1.
func (s *Scope) WriteBool(key string, v bool) {
	var n int64
	if v {
		n = 1
	}
	s.WriteInt(key, n)
}

// WriteStruct scopes fn under key.
func (s *Scope) WriteStruct(key string, fn func(w FieldWriter)) {
	fn(s.child(key))
}

// WriteArray stores n elements under key, removing stale elements beyond n.
//
// Precondition: n >= 0.
func (s *Scope) WriteArray(key string, n int, fn func(i int, w FieldWriter)) {
	arr := s.child(key)
	if old, ok := arr.ReadInt(lenSuffix); ok && int(old) > n {
		arr.removeFrom(n)
	}
	arr.WriteInt(lenSuffix, int64(n))
	for i := 0; i < n; i++ {
		fn(i, arr.child(strconv.Itoa(i)))
	}
}

// removeFrom deletes array elements with index >= n.
func (s *Scope) removeFrom(n int) {
	base := s.prefix + "."
	for k := range s.rec.fields {
		if !strings.HasPrefix(k, base) {
			continue
		}
		idx, _, _ := strings.Cut(strings.TrimPrefix(k, base), ".")
		i, err := strconv.Atoi(idx)
		if err != nil || i < n {
			continue
		}
		delete(s.rec.fields, k)
		s.rec.dirty = true
	}
}

// Has reports whether a scalar field exists at key, or any field exists under it.
func (s *Scope) Has(key string) bool {
	p := s.path(key)
	if _, ok := s.rec.fields[p]; ok {
		return true
	}
	return s.rec.hasPrefix(p + ".")
}

// ReadInt returns the value at key.
func (s *Scope) ReadInt(key string) (int64, bool) {
	v, ok := s.rec.fields[s.path(key)]
	return v, ok
}

// ReadBool returns the value at key; any non-zero value is true.
func (s *Scope) ReadBool(key string) (bool, bool) {
	v, ok := s.ReadInt(key)
	return v != 0, ok
}

// ReadStruct calls fn scoped under key.
func (s *Scope) ReadStruct(key string, fn func(r FieldReader)) bool {
	c := s.child(key)
	if !s.rec.hasPrefix(c.prefix + ".") {
		return false
	}
	fn(c)
	return true
}

// ReadArray visits up to max elements of the array at key. A missing or
// negative length visits nothing.
func (s *Scope) ReadArray(key string, max int, fn func(i int, r FieldReader)) int {
	arr := s.child(key)
	n64, ok := arr.ReadInt(lenSuffix)
	if !ok || n64 <= 0 {
		return 0
	}
	n := max
	if n64 < int64(max) {
		n = int(n64)
	}
	for i := 0; i < n; i++ {
		fn(i, arr.child(strconv.Itoa(i)))
	}
	return n
}

func (r *Record) hasPrefix(prefix string) bool {
	for k := range r.fields {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}
