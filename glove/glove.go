// Package glove reads GloVe word vector files.
//
// A GloVe text file has one word per line, followed by
// the components of its vector, all separated by spaces.
// Some words in the larger releases contain spaces, so the
// vector is taken to be the last dim fields of a line.
package glove

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

const maxLineSize = 1 << 20

// ParseLine decodes a line of a GloVe file.
func ParseLine(line string, dim int) (word string, vec []float64, err error) {
	word, fields, err := splitLine(line, dim)
	if err != nil {
		return "", nil, err
	}
	vec = make([]float64, dim)
	for i, field := range fields {
		vec[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return "", nil, fmt.Errorf("word %q: invalid component %q", word, field)
		}
	}
	return word, vec, nil
}

// splitLine splits on ASCII spaces only, since words may
// contain other whitespace such as U+00A0.
func splitLine(line string, dim int) (string, []string, error) {
	fields := strings.Split(strings.TrimRight(line, " \r\n"), " ")
	if len(fields) < dim+1 {
		return "", nil, fmt.Errorf("expected at least %d fields but got %d", dim+1,
			len(fields))
	}
	split := len(fields) - dim
	return strings.Join(fields[:split], " "), fields[split:], nil
}

// A Vocab assigns consecutive indices to words.
//
// The index Len() is reserved for unknown words.
type Vocab struct {
	words []string
	index map[string]int
}

// NewVocab creates a vocabulary in which each word's index
// is its first position in words.
func NewVocab(words []string) *Vocab {
	v := &Vocab{index: map[string]int{}}
	for _, w := range words {
		v.add(w)
	}
	return v
}

func (v *Vocab) add(word string) bool {
	if _, ok := v.index[word]; ok {
		return false
	}
	v.index[word] = len(v.words)
	v.words = append(v.words, word)
	return true
}

// Len returns the number of known words.
func (v *Vocab) Len() int {
	return len(v.words)
}

// Index returns the index of a word, or Len() if the
// word is unknown.
func (v *Vocab) Index(word string) int {
	if idx, ok := v.index[word]; ok {
		return idx
	}
	return len(v.words)
}

// Contains checks if a word is known.
func (v *Vocab) Contains(word string) bool {
	_, ok := v.index[word]
	return ok
}

// Word returns the word at an index.
func (v *Vocab) Word(idx int) string {
	return v.words[idx]
}

// Coverage returns the fraction of words that are known.
// It returns 0 for an empty set.
func (v *Vocab) Coverage(words map[string]bool) float64 {
	if len(words) == 0 {
		return 0
	}
	var known int
	for w := range words {
		if v.Contains(w) {
			known++
		}
	}
	return float64(known) / float64(len(words))
}

// Embeddings stores a vector for every word in a Vocab.
type Embeddings struct {
	Vocab *Vocab
	Dim   int

	// Vectors is a row-major matrix with one row per word.
	Vectors []float64
}

// Load reads an embedding file.
// When a word appears twice, the first vector is kept.
func Load(r io.Reader, dim int) (*Embeddings, error) {
	if dim <= 0 {
		return nil, errors.New("load embeddings: dimension must be positive")
	}
	res := &Embeddings{Vocab: NewVocab(nil), Dim: dim}
	err := scanLines(r, func(line string) error {
		word, vec, err := ParseLine(line, dim)
		if err != nil {
			return err
		}
		if res.Vocab.add(word) {
			res.Vectors = append(res.Vectors, vec...)
		}
		return nil
	})
	if err != nil {
		return nil, essentials.AddCtx("load embeddings", err)
	}
	return res, nil
}

// LoadFile reads an embedding file from disk.
func LoadFile(path string, dim int) (*Embeddings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("load embeddings", err)
	}
	defer f.Close()
	return Load(f, dim)
}

// Vector returns the vector for a known word index.
func (e *Embeddings) Vector(idx int) []float64 {
	return e.Vectors[idx*e.Dim : (idx+1)*e.Dim]
}

// Matrix creates a (Vocab.Len()+1) x Dim matrix for an
// embedding table.
// The last row, used for unknown words, is zero.
func (e *Embeddings) Matrix(c anyvec.Creator) anyvec.Vector {
	data := make([]float64, len(e.Vectors)+e.Dim)
	copy(data, e.Vectors)
	return c.MakeVectorData(c.MakeNumericList(data))
}

func scanLines(r io.Reader, f func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := f(line); err != nil {
			return essentials.AddCtx(fmt.Sprintf("line %d", lineNum), err)
		}
	}
	return scanner.Err()
}
