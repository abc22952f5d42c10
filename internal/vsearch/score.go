package vsearch

// ScoreMatrix is a dense, symmetric D×D substitution matrix (D is 16 for
// nucleotides, 32 for amino acids), mirrored in two widths so the SIMD
// aligner can use saturating 16-bit arithmetic while the linear-memory
// fallback and score-disagreement checks use full-width 64-bit arithmetic.
// Row 0 and column 0 are reserved for the gap/unknown symbol and always
// score 0.
type ScoreMatrix struct {
	Alphabet *Alphabet
	wide     [][]int64
	narrow   [][]int16
}

// NewScoreMatrix builds a symmetric matrix for alphabet from scalar
// match/mismatch scores: match on the diagonal, mismatch everywhere
// else, zero along the reserved row and column.
func NewScoreMatrix(alphabet *Alphabet, match, mismatch int64) *ScoreMatrix {
	n := alphabet.Size
	m := &ScoreMatrix{
		Alphabet: alphabet,
		wide:     make([][]int64, n),
		narrow:   make([][]int16, n),
	}
	for i := 0; i < n; i++ {
		m.wide[i] = make([]int64, n)
		m.narrow[i] = make([]int16, n)
		for j := 0; j < n; j++ {
			if i == 0 || j == 0 {
				continue // reserved gap/unknown row & column always score 0
			}
			v := mismatch
			if i == j {
				v = match
			}
			m.wide[i][j] = v
			m.narrow[i][j] = int16(v)
		}
	}
	return m
}

// NewScoreMatrixFromTable builds a matrix from a pre-computed symmetric
// table (e.g. BLOSUM62 remapped into the amino-acid alphabet's code
// space). table must be alphabet.Size x alphabet.Size and symmetric;
// NewScoreMatrixFromTable does not verify symmetry, trusting the caller
// for the sake of the hot path.
func NewScoreMatrixFromTable(alphabet *Alphabet, table [][]int64) *ScoreMatrix {
	n := alphabet.Size
	m := &ScoreMatrix{
		Alphabet: alphabet,
		wide:     make([][]int64, n),
		narrow:   make([][]int16, n),
	}
	for i := 0; i < n; i++ {
		m.wide[i] = make([]int64, n)
		m.narrow[i] = make([]int16, n)
		for j := 0; j < n; j++ {
			v := table[i][j]
			m.wide[i][j] = v
			m.narrow[i][j] = int16(v)
		}
	}
	return m
}

// Wide returns the 64-bit score for canonical codes a, b.
func (m *ScoreMatrix) Wide(a, b byte) int64 { return m.wide[a][b] }

// Narrow returns the saturating 16-bit score for canonical codes a, b.
func (m *ScoreMatrix) Narrow(a, b byte) int16 { return m.narrow[a][b] }

// Symmetric reports whether the matrix is exactly symmetric, used by
// tests.
func (m *ScoreMatrix) Symmetric() bool {
	n := len(m.wide)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.wide[i][j] != m.wide[j][i] {
				return false
			}
		}
	}
	return true
}
