package chunk

// CountTokens estimates how many model tokens a text span costs. The
// estimate only drives budgeting decisions; it does not need to match any
// external tokenizer, but the scheme is fixed so that budget boundaries are
// deterministic:
//
//   - a run of letters, digits or underscores counts ceil(len/4) tokens,
//     with a minimum of one;
//   - every other non-whitespace byte counts one token;
//   - whitespace counts nothing.
//
// The scan is a single pass over the bytes, so the cost is linear in the
// span length, and identical input always yields an identical count. Blank
// input counts zero.
func CountTokens(text string) int {
	total := 0
	wordLen := 0

	flush := func() {
		if wordLen > 0 {
			total += (wordLen + 3) / 4
			wordLen = 0
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case isWordByte(c):
			wordLen++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			flush()
		default:
			flush()
			total++
		}
	}
	flush()

	return total
}

// isWordByte reports whether c extends an identifier-like run. Bytes above
// 0x7f are multibyte rune fragments and are treated as word content so that
// non-ASCII identifiers still cost tokens proportional to their length.
func isWordByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
