package vsearch

import "github.com/golang-collections/go-datastructures/bitarray"

// BitmapThreshold is the default BITMAP_THRESHOLD: a k-mer whose record
// count reaches seqcount/BitmapThreshold is promoted from a list to a
// dense per-record bitmap.
const BitmapThreshold = 8

// KmerIndex maps each of base^k k-mers to the set of database records
// that contain it at least once, as flat count/hash/index arrays plus an
// optional dense bitmap for frequent k-mers.
type KmerIndex struct {
	Alphabet *Alphabet
	K        int
	SeqCount int

	count []uint32 // length base^k
	hash  []uint32 // length base^k, prefix-sum offsets into index
	index []uint32 // concatenated, count-sorted record ordinals

	bitmap map[uint32]bitarray.BitArray // present only for frequent k-mers
}

// BuildKmerIndex runs a two-pass build over every record in db: pass one
// extracts each record's unique k-mers and tallies count[]; pass two
// promotes frequent k-mers to bitmaps and fills index[] for the rest.
func BuildKmerIndex(db *Database, k int) (*KmerIndex, error) {
	if k < 3 || k > 15 {
		return nil, newError(InvalidFormat, 0, "k-mer length %d out of range [3,15]", k)
	}
	idx := &KmerIndex{
		Alphabet: db.Alphabet,
		K:        k,
		SeqCount: db.Len(),
	}
	base := kmerBase(db.Alphabet)
	tableLen := powInt(base, k)
	idx.count = make([]uint32, tableLen)
	idx.hash = make([]uint32, tableLen)
	idx.bitmap = make(map[uint32]bitarray.BitArray)

	extractor := NewKmerExtractor(db.Alphabet, k)
	perRecordKmers := make([][]uint32, db.Len())

	// Pass 1: tally count[kmer] over every record's unique k-mer set.
	for i, rec := range db.All() {
		kmers := extractor.Unique(rec.Sequence)
		perRecordKmers[i] = kmers
		for _, km := range kmers {
			idx.count[km]++
		}
	}

	// Prefix sum into hash[]; promote frequent k-mers to bitmaps.
	threshold := uint32(maxInt(1, db.Len()/BitmapThreshold))
	var offset uint32
	for km, c := range idx.count {
		idx.hash[km] = offset
		if c >= threshold && c > 0 {
			idx.bitmap[uint32(km)] = bitarray.NewBitArray(uint64(db.Len()))
		} else {
			offset += c
		}
	}
	idx.index = make([]uint32, offset)

	// Pass 2: fill index[] for list-backed k-mers, set bits for
	// bitmap-backed ones.
	fillCursor := make([]uint32, tableLen)
	for seqID, kmers := range perRecordKmers {
		for _, km := range kmers {
			if ba, ok := idx.bitmap[km]; ok {
				if err := ba.SetBit(uint64(seqID)); err != nil {
					return nil, wrapError(ResourceExhausted, err,
						"setting bitmap bit for k-mer %d record %d", km, seqID)
				}
				continue
			}
			pos := idx.hash[km] + fillCursor[km]
			idx.index[pos] = uint32(seqID)
			fillCursor[km]++
		}
	}
	return idx, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// NewKmerIndexFromTables reconstructs a KmerIndex directly from its
// serialized tables, the same way a persisted index is loaded back from
// disk without recomputation rather than rebuilt record-by-record --
// count/hash/index must already satisfy the Contains invariant, and
// bitmap may be nil.
func NewKmerIndexFromTables(alphabet *Alphabet, k, seqCount int, count, hash, index []uint32, bitmap map[uint32]bitarray.BitArray) *KmerIndex {
	if bitmap == nil {
		bitmap = make(map[uint32]bitarray.BitArray)
	}
	return &KmerIndex{
		Alphabet: alphabet,
		K:        k,
		SeqCount: seqCount,
		count:    count,
		hash:     hash,
		index:    index,
		bitmap:   bitmap,
	}
}

// Tables exposes the index's internal count/hash/index arrays and bitmap
// set for serialization, the mirror of NewKmerIndexFromTables.
func (idx *KmerIndex) Tables() (count, hash, index []uint32, bitmap map[uint32]bitarray.BitArray) {
	return idx.count, idx.hash, idx.index, idx.bitmap
}

// Count returns the number of records containing k-mer km.
func (idx *KmerIndex) Count(km uint32) uint32 { return idx.count[km] }

// Records returns the sorted list of record ordinals containing k-mer km,
// or nil if km is bitmap-backed (use Bitmap instead).
func (idx *KmerIndex) Records(km uint32) []uint32 {
	if _, ok := idx.bitmap[km]; ok {
		return nil
	}
	start := idx.hash[km]
	return idx.index[start : start+idx.count[km]]
}

// Bitmap returns the dense per-record membership bitmap for km, and
// whether km is bitmap-backed at all.
func (idx *KmerIndex) Bitmap(km uint32) (bitarray.BitArray, bool) {
	ba, ok := idx.bitmap[km]
	return ba, ok
}

// Contains reports whether record seqID contains k-mer km, checking
// whichever of the list or bitmap representation backs km. This holds
// the core index invariant: for every record r and k-mer k, k is in
// unique_kmers(r.sequence) iff either r.ordinal is in
// index[hash[k]..hash[k]+count[k]] or bitmap[k].get(r.ordinal) = 1.
func (idx *KmerIndex) Contains(km uint32, seqID int) bool {
	if ba, ok := idx.bitmap[km]; ok {
		set, _ := ba.GetBit(uint64(seqID))
		return set
	}
	for _, s := range idx.Records(km) {
		if int(s) == seqID {
			return true
		}
	}
	return false
}
