package types

// Table is an open-addressing hash table with linear probing, keyed by
// interned *String pointers and holding Values. It backs both the VM's
// globals table and the string intern table, and the per-StructDef method
// table.
//
// Deleted entries are marked with a tombstone (a nil key paired with a
// truthy placeholder value) rather than being physically removed, so that
// probe sequences past a deletion are not broken. Lookup and insertion both
// treat a tombstone as "still probing, but free to reuse" and capacity never
// shrinks.
type Table struct {
	count   int // number of live entries plus tombstones, for the load factor
	entries []entry
}

type entry struct {
	key   *String
	value Value
}

const tableMaxLoad = 0.75

// NewTable returns an empty Table.
func NewTable() *Table { return &Table{} }

// Count returns the number of occupied slots: live entries plus the
// tombstones left by Delete since the table last grew.
func (t *Table) Count() int { return t.count }

// Get returns the value stored for key, and whether key was present.
func (t *Table) Get(key *String) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set stores value for key, growing the table first if needed. It reports
// whether this created a brand new entry (as opposed to overwriting an
// existing one) — SET_GLOBAL relies on this to detect assignment to an
// undefined global.
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && e.value.IsNil() {
		// only a genuinely empty slot grows the count; a reused tombstone is
		// already included in it (tombstones behave like filled slots from the
		// load factor's point of view, so the growth check above sees them)
		t.count++
	}
	e.key = key
	e.value = value
	return isNew
}

// Delete removes key's entry, if present, replacing it with a tombstone so
// later probe sequences remain intact. It reports whether key was present.
func (t *Table) Delete(key *String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = True // tombstone sentinel: nil key, truthy value
	return true
}

// FindString looks up an interned string by its raw bytes and cached hash,
// without first allocating a *String — this is the operation the intern
// table uses to decide whether a new literal is already interned.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if e.value.IsNil() {
				// genuinely empty slot: the string isn't interned
				return nil
			}
			// tombstone: keep probing
		case e.key.Hash == hash && e.key.Chars == chars:
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

func findEntry(entries []entry, key *String) *entry {
	mask := uint32(len(entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[idx]
		switch {
		case e.key == nil:
			if e.value.IsNil() {
				// empty slot: return any tombstone seen along the way so it can
				// be reused, otherwise this fresh slot
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) adjustCapacity(newCap int) {
	entries := make([]entry, newCap)
	live := 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.key == nil {
			continue
		}
		dst := findEntry(entries, old.key)
		dst.key = old.key
		dst.value = old.value
		live++
	}
	t.entries = entries
	t.count = live
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}
