package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	c, err := Read(strings.NewReader("the dog barks\n\nThe cat\n"), Options{Lowercase: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(c.Sentences))
	}
	if c.Vocab.Len() != 4 {
		t.Errorf("expected 4 words, got %d", c.Vocab.Len())
	}
	if c.Sentences[1][0] != c.Sentences[0][0] {
		t.Errorf("lowercased 'The' should share the id of 'the'")
	}
	if got := strings.Join(c.Vocab.Words(c.Sentences[1]), " "); got != "the cat" {
		t.Errorf("bad round trip %q", got)
	}
	if c.Tokens() != 5 {
		t.Errorf("expected 5 tokens, got %d", c.Tokens())
	}
}

func TestMinCount(t *testing.T) {
	c, err := Read(strings.NewReader("a a b\na c\n"), Options{MinCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Vocab.ID(UnknownWord); !ok {
		t.Fatalf("rare words should map to %s", UnknownWord)
	}
	if c.Vocab.Len() != 2 {
		t.Errorf("expected vocabulary {a, <unk>}, got %d words", c.Vocab.Len())
	}
}

func TestLatin1(t *testing.T) {
	c, err := Read(strings.NewReader("caf\xe9\n"), Options{Encoding: "latin1"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Vocab.Word(0) != "café" {
		t.Errorf("bad decoding %q", c.Vocab.Word(0))
	}
	if _, err := Read(strings.NewReader("x"), Options{Encoding: "ebcdic"}); err == nil {
		t.Errorf("expected unsupported encoding error")
	}
}

func TestReadGlob(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x y\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("y z\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := ReadGlob(filepath.Join(dir, "**", "*.txt"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Sentences) != 2 || c.Vocab.Len() != 3 {
		t.Errorf("expected 2 sentences over 3 words, got %d over %d", len(c.Sentences), c.Vocab.Len())
	}
	if _, err := ReadGlob(filepath.Join(dir, "*.none"), Options{}); err == nil {
		t.Errorf("expected error for empty match")
	}
}
