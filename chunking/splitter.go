package chunking

import "strings"

// takeTokens splits text into a head of at most target tokens and the
// remaining tail, with head+tail == text. Cuts land after paragraph breaks
// when possible; when the accumulated paragraphs fill less than 80% of the
// target, the next paragraph is entered sentence by sentence; word
// boundaries are the final fallback. The head always contains at least the
// first word so the caller makes progress on degenerate input.
func takeTokens(text string, target int, counter TokenCounter) (head, tail string) {
	if text == "" {
		return "", ""
	}
	if counter.Count(text) <= target {
		return text, ""
	}

	paraCuts := paragraphCuts(text)
	cut := maxCut(text, paraCuts, target, counter)

	if counter.Count(text[:cut])*5 < target*4 {
		// The next paragraph did not fit whole; take its sentences.
		paraEnd := len(text)
		for _, pc := range paraCuts {
			if pc > cut {
				paraEnd = pc
				break
			}
		}
		if sc := maxCut(text, sentenceCuts(text, cut, paraEnd), target, counter); sc > cut {
			cut = sc
		}
	}

	if cut == 0 {
		cut = maxCut(text, wordCuts(text), target, counter)
	}
	if cut == 0 {
		cut = firstWordEnd(text)
	}
	return text[:cut], text[cut:]
}

// maxCut returns the largest cut position whose prefix stays within target
// tokens, or 0 if none fits. cuts must be ascending; monotonic counting
// makes the prefix counts non-decreasing, so binary search applies.
func maxCut(text string, cuts []int, target int, counter TokenCounter) int {
	best := 0
	lo, hi := 0, len(cuts)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if counter.Count(text[:cuts[mid]]) <= target {
			best = cuts[mid]
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// paragraphCuts returns cut positions just after each blank-line separator,
// so the separator bytes stay with the preceding paragraph.
func paragraphCuts(text string) []int {
	var cuts []int
	i := 0
	for i+1 < len(text) {
		j := strings.Index(text[i:], "\n\n")
		if j < 0 {
			break
		}
		k := i + j + 2
		for k < len(text) && text[k] == '\n' {
			k++
		}
		cuts = append(cuts, k)
		i = k
	}
	return cuts
}

// sentenceCuts returns cut positions inside text[lo:hi] after sentence
// punctuation followed by whitespace, with the whitespace run kept on the
// preceding sentence.
func sentenceCuts(text string, lo, hi int) []int {
	if hi > len(text) {
		hi = len(text)
	}
	var cuts []int
	for i := lo; i < hi; i++ {
		switch text[i] {
		case '.', '!', '?':
			j := i + 1
			for j < hi && isSpaceByte(text[j]) {
				j++
			}
			if j > i+1 {
				cuts = append(cuts, j)
				i = j - 1
			}
		}
	}
	return cuts
}

// wordCuts returns cut positions at the start of each word after the first.
func wordCuts(text string) []int {
	var cuts []int
	inSpace := false
	for i := 0; i < len(text); i++ {
		if isSpaceByte(text[i]) {
			inSpace = true
		} else if inSpace {
			cuts = append(cuts, i)
			inSpace = false
		}
	}
	return cuts
}

// WordSpan returns the byte length of the first n whitespace-delimited
// words of text including trailing whitespace, or len(text) when fewer
// than n words remain. Segmentation backends use it to convert word-level
// consumption claims into byte offsets on the working buffer.
func WordSpan(text string, n int) int {
	if n <= 0 {
		return 0
	}
	i, words := 0, 0
	for i < len(text) {
		for i < len(text) && isSpaceByte(text[i]) {
			i++
		}
		if i == len(text) {
			break
		}
		for i < len(text) && !isSpaceByte(text[i]) {
			i++
		}
		words++
		for i < len(text) && isSpaceByte(text[i]) {
			i++
		}
		if words == n {
			return i
		}
	}
	return len(text)
}

// firstWordEnd returns the position after the first word and its trailing
// whitespace, or len(text) when the text is a single word.
func firstWordEnd(text string) int {
	i := 0
	for i < len(text) && isSpaceByte(text[i]) {
		i++
	}
	for i < len(text) && !isSpaceByte(text[i]) {
		i++
	}
	for i < len(text) && isSpaceByte(text[i]) {
		i++
	}
	return i
}

// isSpaceByte reports ASCII whitespace. Cutting only at ASCII whitespace
// keeps multi-byte runes intact.
func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
