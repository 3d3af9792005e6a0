// Package corpus implements the vocabulary and the tokenized sentences an HMM
// is trained on.
package corpus

import "fmt"

// Vocabulary maps words to dense ids and back.
type Vocabulary struct {
	ids   map[string]int
	words []string
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{ids: make(map[string]int)}
}

// Add returns the id of word, assigning the next free id if the word is new.
func (v *Vocabulary) Add(word string) int {
	if id, ok := v.ids[word]; ok {
		return id
	}
	id := len(v.words)
	v.ids[word] = id
	v.words = append(v.words, word)
	return id
}

// ID looks up a word.
func (v *Vocabulary) ID(word string) (int, bool) {
	id, ok := v.ids[word]
	return id, ok
}

// Word returns the string of an id, or a placeholder for unknown ids.
func (v *Vocabulary) Word(id int) string {
	if id < 0 || id >= len(v.words) {
		return fmt.Sprintf("<unk:%d>", id)
	}
	return v.words[id]
}

// Words converts a sequence of ids into their strings.
func (v *Vocabulary) Words(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = v.Word(id)
	}
	return out
}

func (v *Vocabulary) Len() int {
	return len(v.words)
}
