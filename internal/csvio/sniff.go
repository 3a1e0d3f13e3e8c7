package csvio

import "strings"

// DefaultDelimiter is used when sniffing finds no consistent candidate.
const DefaultDelimiter = ','

// Candidates in tie-break order.
var candidates = []rune{',', '\t', ';', '|'}

// consistencyThreshold is the share of sampled lines that must agree on a
// candidate's per-line count.
const consistencyThreshold = 0.9

// SniffDelimiter guesses the delimiter of a CSV sample. Counting ignores
// delimiters inside double quotes. A candidate qualifies when at least 90% of
// lines contain it the same non-zero number of times; the most consistent
// candidate wins and ties go to the earlier entry of comma, tab, semicolon,
// pipe. Anything else yields DefaultDelimiter.
func SniffDelimiter(sample []byte) rune {
	lines := sampleLines(DecodeBytes(sample))
	if len(lines) == 0 {
		return DefaultDelimiter
	}

	best := DefaultDelimiter
	bestScore := 0.0
	for _, delim := range candidates {
		score := consistency(lines, delim)
		if score >= consistencyThreshold && score > bestScore {
			best = delim
			bestScore = score
		}
	}
	return best
}

// consistency returns the fraction of lines whose count of delim equals the
// most common non-zero count.
func consistency(lines []string, delim rune) float64 {
	freq := make(map[int]int)
	for _, line := range lines {
		freq[countOutsideQuotes(line, delim)]++
	}
	modeCount, modeLines := 0, 0
	for count, n := range freq {
		if count == 0 {
			continue
		}
		if n > modeLines || (n == modeLines && count < modeCount) {
			modeCount, modeLines = count, n
		}
	}
	if modeCount == 0 {
		return 0
	}
	return float64(modeLines) / float64(len(lines))
}

func countOutsideQuotes(line string, delim rune) int {
	inQuotes := false
	n := 0
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			n++
		}
	}
	return n
}

// sampleLines splits a sample into logical records, keeping quoted newlines
// inside their record. Blank records are dropped, and so is a trailing
// record that the sample cut short.
func sampleLines(text string) []string {
	var (
		lines    []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case (r == '\n' || r == '\r') && !inQuotes:
			if s := current.String(); strings.TrimSpace(s) != "" {
				lines = append(lines, s)
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	// An unterminated last record is likely cut short by the sample size and
	// would skew the counts, so it is only used when it is all there is.
	if s := current.String(); strings.TrimSpace(s) != "" && len(lines) == 0 {
		lines = append(lines, s)
	}
	return lines
}
