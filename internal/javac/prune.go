package javac

// Prune reduces source text to the regions that matter for binding a single
// name: lines carrying an identifier token equal to name survive, as do
// package/import lines and type-declaration headers, which the parser needs
// to keep the file's structure. Everything else is blanked to spaces, except
// braces and semicolons, so nesting survives and no character that remains
// ever moves - the pruned text has exactly the original line and column
// geometry.
func Prune(content, name string) string {
	out := []byte(content)
	lineStart := 0
	for i := 0; i <= len(content); i++ {
		if i == len(content) || content[i] == '\n' {
			if !keepLine(content[lineStart:i], name) {
				blankLine(out[lineStart:i])
			}
			lineStart = i + 1
		}
	}
	return string(out)
}

func keepLine(line, name string) bool {
	if containsWord(line, name) {
		return true
	}
	for _, kw := range [...]string{"package", "import", "class", "interface", "enum", "@interface"} {
		if containsWord(line, kw) {
			return true
		}
	}
	return false
}

func blankLine(line []byte) {
	for i, b := range line {
		switch b {
		case '{', '}', ';', ' ', '\t', '\r':
		default:
			line[i] = ' '
		}
	}
}

// containsWord reports whether text contains word as a whole identifier
// token.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i+len(word) <= len(text); i++ {
		if text[i:i+len(word)] != word {
			continue
		}
		if i > 0 && isIdentByte(text[i-1]) {
			continue
		}
		if end := i + len(word); end < len(text) && isIdentByte(text[end]) {
			continue
		}
		return true
	}
	return false
}
