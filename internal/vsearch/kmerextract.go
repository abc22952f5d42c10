package vsearch

import (
	"github.com/chmduquesne/rollinghash"
	"github.com/chmduquesne/rollinghash/buzhash32"
	"github.com/golang-collections/go-datastructures/bitarray"
)

// kmerSmallMax is the largest k for which the unique-kmer extractor uses a
// dense bitmap (4^k bits; 128 KiB at k=10, hence the cutoff at k=9). Above
// this, an open-addressed hash table sized to 2x the query length is used
// instead.
const kmerSmallMax = 9

// kmerBase returns the number of "clean" (non-ambiguous, non-gap) symbol
// codes an alphabet contributes to k-mer arithmetic: 4 for nucleotides
// (A,C,G,T), 20 for amino acids (the 20 standard residues). Every other
// code - 0 (gap/unknown) and the ambiguity/stop codes above the clean
// run - is "bad" and invalidates any k-mer window it falls within.
func kmerBase(a *Alphabet) int {
	if a.Size == 16 {
		return 4
	}
	return 20
}

// isCleanCode reports whether code is one of the alphabet's kmerBase
// "clean" codes, i.e. codes 1..kmerBase(a) inclusive. Code 0 and anything
// above kmerBase is ambiguous/gap and is never clean.
func isCleanCode(a *Alphabet, code byte) bool {
	n := kmerBase(a)
	return int(code) >= 1 && int(code) <= n
}

// powInt computes base^exp by plain repeated multiplication: k never
// exceeds 15, and going through math.Pow risks float rounding for
// larger bases.
func powInt(base, exp int) int {
	r := 1
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}

// KmerExtractor extracts, from a canonical-alphabet sequence, the set of
// distinct k-mers appearing exactly once in it. A single extractor is
// reused across many sequences (database build, per-query extraction) to
// avoid reallocating the hash table on every call; it is not safe for
// concurrent use, following the same per-worker-owned scratch discipline
// as the aligner.
type KmerExtractor struct {
	alphabet *Alphabet
	k        int
	base     int
	pow      []int // base^0 .. base^k, precomputed

	// small-k path: two-bit-per-kmer counter packed as two bitmaps so we
	// can tell "seen zero/one/many times" without a byte-per-kmer array.
	seenOnce bitarray.BitArray
	seenMany bitarray.BitArray
	touched  []uint32 // kmer codes touched this call, for O(seen) reset

	// large-k path: open-addressed hash table, sized 2x the query length
	// and rebuilt per call since query lengths vary widely. Table slots
	// are indexed by a buzhash32 rolling hash over the raw k-byte
	// window rather than rehashing the packed integer code from scratch
	// at every position.
	table    []kmerSlot
	tableCap int
	roll     rollinghash.Hash32
}

type kmerSlot struct {
	used  bool
	code  uint32
	count uint8 // saturates at 2: "seen once" vs "seen 2+"
}

// NewKmerExtractor builds an extractor for the given alphabet and k
// (3 <= k <= 15).
func NewKmerExtractor(alphabet *Alphabet, k int) *KmerExtractor {
	base := kmerBase(alphabet)
	e := &KmerExtractor{alphabet: alphabet, k: k, base: base}
	e.pow = make([]int, k+1)
	p := 1
	for i := 0; i <= k; i++ {
		e.pow[i] = p
		p *= base
	}
	if k <= kmerSmallMax {
		size := uint64(e.pow[k])
		e.seenOnce = bitarray.NewBitArray(size)
		e.seenMany = bitarray.NewBitArray(size)
	} else {
		e.roll = buzhash32.NewFromUint32Array(kmerHashTable)
	}
	return e
}

// kmerHashTable is the byte-substitution table buzhash32 mixes in as it
// rolls. Output must be reproducible run to run, so the table is
// generated once from a fixed xorshift32 stream rather than math/rand.
var kmerHashTable = buildKmerHashTable()

func buildKmerHashTable() [256]uint32 {
	var t [256]uint32
	x := uint32(0x9e3779b9)
	for i := range t {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		t[i] = x
	}
	return t
}

// Unique returns the sorted list of canonical k-mer codes that appear
// exactly once in seq (a canonical-alphabet byte slice). The returned
// slice is owned by the caller; Unique itself reuses no state across
// calls beyond the extractor's pre-sized scratch.
func (e *KmerExtractor) Unique(seq []byte) []uint32 {
	if e.k <= kmerSmallMax {
		return e.uniqueBitmap(seq)
	}
	return e.uniqueHash(seq)
}

// slideWindows walks seq with a rolling k-mer register and a parallel
// "bad bits" shift register: a window is valid only once k consecutive
// clean symbols have been shifted in. emit is called once per valid
// window with its k-mer code.
func (e *KmerExtractor) slideWindows(seq []byte, emit func(code uint32)) {
	if len(seq) < e.k {
		return
	}
	var reg int
	var badRun int // number of trailing bad/uninitialized positions
	for i, b := range seq {
		if isCleanCode(e.alphabet, b) {
			reg = (reg*e.base + int(b) - 1) % e.pow[e.k]
			if badRun > 0 {
				badRun--
			}
		} else {
			reg = 0
			badRun = e.k
		}
		if i >= e.k-1 && badRun == 0 {
			emit(uint32(reg))
		}
	}
}

func (e *KmerExtractor) uniqueBitmap(seq []byte) []uint32 {
	e.touched = e.touched[:0]
	e.slideWindows(seq, func(code uint32) {
		c := uint64(code)
		once, _ := e.seenOnce.GetBit(c)
		many, _ := e.seenMany.GetBit(c)
		switch {
		case many:
			// already known to repeat; nothing to do
		case once:
			e.seenMany.SetBit(c)
		default:
			e.seenOnce.SetBit(c)
			e.touched = append(e.touched, code)
		}
	})
	out := make([]uint32, 0, len(e.touched))
	for _, code := range e.touched {
		c := uint64(code)
		many, _ := e.seenMany.GetBit(c)
		if !many {
			out = append(out, code)
		}
		e.seenOnce.ClearBit(c)
		e.seenMany.ClearBit(c)
	}
	return sortedUint32(out)
}

func (e *KmerExtractor) uniqueHash(seq []byte) []uint32 {
	want := nextPow2(2 * len(seq))
	if want < 16 {
		want = 16
	}
	if e.table == nil || e.tableCap != want {
		e.table = make([]kmerSlot, want)
		e.tableCap = want
	} else {
		for i := range e.table {
			e.table[i] = kmerSlot{}
		}
	}
	mask := uint32(e.tableCap - 1)

	var reg int
	var badRun int
	have := false // whether e.roll currently holds the k-byte window ending at the previous position
	for i, b := range seq {
		if isCleanCode(e.alphabet, b) {
			reg = (reg*e.base + int(b) - 1) % e.pow[e.k]
			if badRun > 0 {
				badRun--
			}
		} else {
			reg = 0
			badRun = e.k
			have = false
		}
		if i < e.k-1 || badRun != 0 {
			continue
		}
		if !have {
			e.roll.Reset()
			e.roll.Write(seq[i-e.k+1 : i+1])
			have = true
		} else {
			e.roll.Roll(b)
		}
		h := e.roll.Sum32() & mask
		code := uint32(reg)
		for {
			slot := &e.table[h]
			if !slot.used {
				slot.used = true
				slot.code = code
				slot.count = 1
				break
			}
			if slot.code == code {
				if slot.count < 2 {
					slot.count++
				}
				break
			}
			h = (h + 1) & mask
		}
	}
	out := make([]uint32, 0, e.tableCap/4)
	for _, slot := range e.table {
		if slot.used && slot.count == 1 {
			out = append(out, slot.code)
		}
	}
	return sortedUint32(out)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func sortedUint32(s []uint32) []uint32 {
	// insertion sort: candidate lists here are typically small (a few
	// hundred to a few thousand unique k-mers per read), where
	// insertion sort beats sort.Slice's overhead in practice.
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
	return s
}
