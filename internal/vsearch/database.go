package vsearch

// Database is an immutable, in-memory collection of Records built once
// from an input stream and frozen: nothing persists state between
// invocations and nothing updates an index in place.
type Database struct {
	Alphabet *Alphabet
	records  []*Record
}

// NewDatabase builds an empty, writable Database for alphabet. Use Add to
// populate it, then Freeze (implicitly, by simply no longer calling Add —
// there is no persisted mutable state to flip) before sharing it across
// worker goroutines.
func NewDatabase(alphabet *Alphabet) *Database {
	return &Database{Alphabet: alphabet, records: make([]*Record, 0, 1024)}
}

// Add appends r to the database. r.Ordinal() must equal Len() before the
// call; the database never renumbers records.
func (db *Database) Add(r *Record) error {
	if r.Ordinal() != len(db.records) {
		return newError(InvalidFormat, 0,
			"record ordinal %d does not match next database slot %d",
			r.Ordinal(), len(db.records))
	}
	db.records = append(db.records, r)
	return nil
}

// Len returns the number of records in the database.
func (db *Database) Len() int { return len(db.records) }

// At returns the record at ordinal i. At panics if i is out of range,
// since every caller derives i from a value the database itself produced
// (a k-mer index hit, an exact-index lookup, a Hit.Target) and an
// out-of-range i is a programming error, not a data error.
func (db *Database) At(i int) *Record { return db.records[i] }

// All returns the full record slice. Callers must not mutate it; the
// returned slice aliases the database's own backing array.
func (db *Database) All() []*Record { return db.records }
