package vsearch

// ExactIndex maps a canonicalized sequence to every database ordinal
// carrying that exact sequence, a full-string equality probe that lets
// exact-search mode skip the aligner entirely.
type ExactIndex struct {
	buckets map[string][]int32
}

// BuildExactIndex indexes every record in db by its exact sequence.
func BuildExactIndex(db *Database) *ExactIndex {
	idx := &ExactIndex{buckets: make(map[string][]int32, db.Len())}
	for _, rec := range db.All() {
		key := string(rec.Sequence)
		idx.buckets[key] = append(idx.buckets[key], int32(rec.Ordinal()))
	}
	return idx
}

// Search returns every database ordinal whose sequence exactly equals
// query, or nil if none match.
func (idx *ExactIndex) Search(query []byte) []int32 {
	return idx.buckets[string(query)]
}
