package vsearch

import "testing"

func TestScoreMatrixReservedRowAndColumn(t *testing.T) {
	m := NewScoreMatrix(Nucleotide, 5, -4)
	for c := byte(0); int(c) < Nucleotide.Size; c++ {
		if got := m.Wide(0, c); got != 0 {
			t.Errorf("Wide(0, %d) = %d, want 0 (reserved gap/unknown row)", c, got)
		}
		if got := m.Wide(c, 0); got != 0 {
			t.Errorf("Wide(%d, 0) = %d, want 0 (reserved gap/unknown column)", c, got)
		}
	}
}

func TestScoreMatrixWidthsAgree(t *testing.T) {
	m := NewScoreMatrix(Nucleotide, 5, -4)
	for a := byte(0); int(a) < Nucleotide.Size; a++ {
		for b := byte(0); int(b) < Nucleotide.Size; b++ {
			if int64(m.Narrow(a, b)) != m.Wide(a, b) {
				t.Fatalf("Narrow(%d,%d) = %d disagrees with Wide = %d",
					a, b, m.Narrow(a, b), m.Wide(a, b))
			}
		}
	}
	if !m.Symmetric() {
		t.Errorf("scalar-built matrix should be symmetric")
	}
}

func TestScoreMatrixFromTable(t *testing.T) {
	n := Nucleotide.Size
	table := make([][]int64, n)
	for i := range table {
		table[i] = make([]int64, n)
	}
	table[1][2] = -7
	table[2][1] = -7
	table[3][3] = 11

	m := NewScoreMatrixFromTable(Nucleotide, table)
	if got := m.Wide(1, 2); got != -7 {
		t.Errorf("Wide(1,2) = %d, want -7", got)
	}
	if got := m.Narrow(3, 3); got != 11 {
		t.Errorf("Narrow(3,3) = %d, want 11", got)
	}
	if !m.Symmetric() {
		t.Errorf("table-built matrix should be symmetric")
	}

	table[1][2] = 9 // break symmetry in the source table
	asym := NewScoreMatrixFromTable(Nucleotide, table)
	if asym.Symmetric() {
		t.Errorf("Symmetric() should report an asymmetric table")
	}
}
