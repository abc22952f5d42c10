package vsearch

// complementCode maps a nucleotide canonical code (index into nucLetters)
// to its IUPAC complement code: A<->T, C<->G, R<->Y, S<->S, W<->W,
// K<->M, B<->V, D<->H, N<->N, U->A.
var complementCode = [16]byte{
	0,  // N -> N
	4,  // A -> T
	3,  // C -> G
	2,  // G -> C
	1,  // T -> A
	6,  // R -> Y
	5,  // Y -> R
	7,  // S -> S
	8,  // W -> W
	10, // K -> M
	9,  // M -> K
	14, // B -> V
	13, // D -> H
	12, // H -> D
	11, // V -> B
	1,  // U -> A
}

// ReverseComplement returns the reverse complement of a canonical-code
// nucleotide sequence. For a non-nucleotide alphabet (amino acid), there
// is no notion of a complementary strand, so seq is returned reversed and
// unmodified otherwise -- callers only invoke ReverseComplement under
// StrandBoth, which is meaningful for nucleotide queries only.
func ReverseComplement(seq []byte, alphabet *Alphabet) []byte {
	out := make([]byte, len(seq))
	n := len(seq)
	if alphabet.Size != 16 {
		for i, b := range seq {
			out[n-1-i] = b
		}
		return out
	}
	for i, b := range seq {
		c := byte(0)
		if int(b) < len(complementCode) {
			c = complementCode[b]
		}
		out[n-1-i] = c
	}
	return out
}
