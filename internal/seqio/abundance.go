package seqio

import "github.com/torognes/vsearch-sub001/internal/vsearch"

// ParseAbundance scans header for a `;size=N;` (or leading `size=N;`,
// or trailing `;size=N`) annotation and returns N, or 1 if no such
// annotation is present. A hand-rolled byte scanner is enough for this
// one fixed pattern; a regexp here would cost an allocation per header
// on the ingest hot path.
func ParseAbundance(header []byte) (uint64, error) {
	const tag = "size="
	for i := 0; i+len(tag) <= len(header); i++ {
		if i > 0 && header[i-1] != ';' {
			continue
		}
		if string(header[i:i+len(tag)]) != tag {
			continue
		}
		j := i + len(tag)
		start := j
		var n uint64
		for j < len(header) && header[j] >= '0' && header[j] <= '9' {
			n = n*10 + uint64(header[j]-'0')
			j++
		}
		if j == start {
			continue // "size=" not followed by a digit; not a match
		}
		if j < len(header) && header[j] != ';' {
			continue // not terminated by ';' or end of header
		}
		if n == 0 {
			return 0, vsearch.NewOutOfRangeError(0, "abundance annotation `size=0` is not allowed")
		}
		return n, nil
	}
	return 1, nil
}
