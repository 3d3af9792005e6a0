package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// UnknownWord replaces words seen fewer than Options.MinCount times.
const UnknownWord = "<unk>"

// Options control how corpus files are read.
type Options struct {
	Encoding  string // "utf-8" (default), "latin1" or "windows-1252"
	Lowercase bool   // fold tokens to lower case
	MinCount  int    // words rarer than this become UnknownWord; 0 keeps all
}

// Corpus is a list of sentences over a vocabulary. Sentences hold word ids.
type Corpus struct {
	Vocab     *Vocabulary
	Sentences [][]int
}

// FromTokens builds a corpus from already tokenized sentences.
func FromTokens(sentences [][]string) *Corpus {
	c := &Corpus{Vocab: NewVocabulary()}
	for _, s := range sentences {
		ids := make([]int, len(s))
		for i, w := range s {
			ids[i] = c.Vocab.Add(w)
		}
		c.Sentences = append(c.Sentences, ids)
	}
	return c
}

// Read parses one sentence per line, tokens separated by white space. Blank
// lines are skipped.
func Read(r io.Reader, opts Options) (*Corpus, error) {
	tokens, err := readTokens(r, opts)
	if err != nil {
		return nil, err
	}
	return build(tokens, opts), nil
}

// ReadFile reads a single corpus file.
func ReadFile(path string, opts Options) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, opts)
}

// ReadGlob reads every file matching pattern (which may contain **) in
// lexical order into one corpus.
func ReadGlob(pattern string, opts Options) (*Corpus, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("ReadGlob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("ReadGlob %q: no files match", pattern)
	}
	sort.Strings(matches)
	var tokens [][]string
	for _, name := range matches {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		t, err := readTokens(file, opts)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("ReadGlob %s: %w", name, err)
		}
		tokens = append(tokens, t...)
	}
	return build(tokens, opts), nil
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("unsupported corpus encoding %q", encoding)
}

func readTokens(r io.Reader, opts Options) (out [][]string, err error) {
	r, err = decoder(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if opts.Lowercase {
			line = strings.ToLower(line)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, fields)
	}
	return out, scanner.Err()
}

func build(tokens [][]string, opts Options) *Corpus {
	if opts.MinCount <= 1 {
		return FromTokens(tokens)
	}
	freq := make(map[string]int)
	for _, s := range tokens {
		for _, w := range s {
			freq[w]++
		}
	}
	for _, s := range tokens {
		for i, w := range s {
			if freq[w] < opts.MinCount {
				s[i] = UnknownWord
			}
		}
	}
	return FromTokens(tokens)
}

// Tokens returns the number of tokens in the corpus.
func (c *Corpus) Tokens() (n int) {
	for _, s := range c.Sentences {
		n += len(s)
	}
	return
}
