// Package chunker splits entry text into pieces for full-text indexing.
//
// Entry text is a headline and free prose followed by labelled list lines
// such as "files: a.go, b.go". Short text stays whole. Longer text is cut
// into sections at blank lines and label lines, neighbouring sections are
// merged up to the target size, and oversized sections are packed word by
// word, or item by item for lists. Every piece of a split list repeats its
// label so it still reads on its own.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 400
	DefaultMaxSize    = 600
)

// Options configures chunk sizes in bytes.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MaxSize:    DefaultMaxSize,
	}
}

// Piece is a chunk of text with the 1-based lines it came from.
type Piece struct {
	Text      string
	Label     string // list label such as "files"; empty for prose or mixed pieces
	StartLine int
	EndLine   int
}

var labelLine = regexp.MustCompile(`^([a-z]+): `)

// Split cuts text into pieces. Text no longer than MaxSize is one piece.
func Split(text string, opts Options) []Piece {
	if opts.TargetSize <= 0 || opts.MaxSize <= 0 {
		opts = DefaultOptions()
	}
	if opts.MaxSize < opts.TargetSize {
		opts.MaxSize = opts.TargetSize
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= opts.MaxSize {
		return []Piece{{Text: text, StartLine: 1, EndLine: strings.Count(text, "\n") + 1}}
	}
	return merge(sections(text), opts)
}

// sections breaks text at blank lines and around label lines.
func sections(text string) []Piece {
	var out []Piece
	var prose []string
	start := 0

	flush := func(end int) {
		if len(prose) > 0 {
			out = append(out, Piece{Text: strings.Join(prose, "\n"), StartLine: start, EndLine: end})
			prose = nil
		}
	}

	for i, line := range strings.Split(text, "\n") {
		n := i + 1
		line = strings.TrimRight(line, " \t\r")
		switch {
		case strings.TrimSpace(line) == "":
			flush(n - 1)
		case labelLine.MatchString(line):
			flush(n - 1)
			label := labelLine.FindStringSubmatch(line)[1]
			out = append(out, Piece{Text: line, Label: label, StartLine: n, EndLine: n})
		default:
			if len(prose) == 0 {
				start = n
			}
			prose = append(prose, line)
		}
	}
	flush(strings.Count(text, "\n") + 1)
	return out
}

// merge joins neighbouring sections up to TargetSize and splits the ones
// over MaxSize.
func merge(secs []Piece, opts Options) []Piece {
	var out []Piece
	var acc *Piece

	flush := func() {
		if acc != nil {
			out = append(out, *acc)
			acc = nil
		}
	}

	for _, s := range secs {
		if len(s.Text) > opts.MaxSize {
			flush()
			out = append(out, splitSection(s, opts)...)
			continue
		}
		if acc == nil {
			s := s
			acc = &s
			continue
		}
		if len(acc.Text)+1+len(s.Text) > opts.TargetSize {
			flush()
			s := s
			acc = &s
			continue
		}
		acc.Text += "\n" + s.Text
		acc.EndLine = s.EndLine
		if acc.Label != s.Label {
			acc.Label = ""
		}
	}
	flush()
	return out
}

func splitSection(s Piece, opts Options) []Piece {
	var texts []string
	if s.Label != "" {
		prefix := s.Label + ": "
		items := strings.Split(strings.TrimPrefix(s.Text, prefix), ", ")
		texts = pack(prefix, items, ", ", opts)
	} else {
		texts = pack("", strings.Fields(s.Text), " ", opts)
	}

	out := make([]Piece, 0, len(texts))
	for _, t := range texts {
		out = append(out, Piece{Text: t, Label: s.Label, StartLine: s.StartLine, EndLine: s.EndLine})
	}
	return out
}

// pack concatenates tokens with sep into strings of about TargetSize bytes,
// each starting with prefix. A token that cannot fit in MaxSize is cut at a
// rune boundary.
func pack(prefix string, tokens []string, sep string, opts Options) []string {
	var out []string
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			out = append(out, prefix+b.String())
			b.Reset()
		}
	}

	for _, tok := range tokens {
		for len(prefix)+len(tok) > opts.MaxSize {
			flush()
			n := runeCut(tok, opts.MaxSize-len(prefix))
			out = append(out, prefix+tok[:n])
			tok = tok[n:]
		}
		if tok == "" {
			continue
		}
		if b.Len() > 0 && len(prefix)+b.Len()+len(sep)+len(tok) > opts.TargetSize {
			flush()
		}
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(tok)
	}
	flush()
	return out
}

// runeCut returns a cut point at most n bytes into s that does not split a
// rune, and always at least one rune.
func runeCut(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	if n == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return n
}
