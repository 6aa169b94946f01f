package sst

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unixpickle/essentials"
)

// MaxLabel is the largest sentiment label.
const MaxLabel = 4

const maxLineSize = 1 << 20

// Parse decodes a single s-expression tree.
func Parse(s string) (*Tree, error) {
	p := &parser{tokens: tokenize(s)}
	t, err := p.tree()
	if err != nil {
		return nil, essentials.AddCtx("parse tree", err)
	}
	if p.idx != len(p.tokens) {
		return nil, fmt.Errorf("parse tree: unexpected %q after tree", p.tokens[p.idx])
	}
	return t, nil
}

// ReadTrees reads one tree per non-blank line.
func ReadTrees(r io.Reader) ([]*Tree, error) {
	var res []*Tree
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t, err := Parse(line)
		if err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("line %d", lineNum), err)
		}
		res = append(res, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, essentials.AddCtx("read trees", err)
	}
	return res, nil
}

// LoadFile reads the trees in a file.
func LoadFile(path string) ([]*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("load trees", err)
	}
	defer f.Close()
	res, err := ReadTrees(f)
	if err != nil {
		return nil, essentials.AddCtx(filepath.Base(path), err)
	}
	return res, nil
}

// A Corpus holds the standard treebank splits.
type Corpus struct {
	Train []*Tree
	Dev   []*Tree
	Test  []*Tree
}

// Names of the split files in the treebank archive.
const (
	TrainFile = "train.txt"
	DevFile   = "dev.txt"
	TestFile  = "test.txt"
)

// LoadCorpus reads the three splits from a directory.
func LoadCorpus(dir string) (*Corpus, error) {
	var res Corpus
	for _, x := range []struct {
		name string
		dest *[]*Tree
	}{
		{TrainFile, &res.Train},
		{DevFile, &res.Dev},
		{TestFile, &res.Test},
	} {
		trees, err := LoadFile(filepath.Join(dir, x.name))
		if err != nil {
			return nil, err
		}
		*x.dest = trees
	}
	return &res, nil
}

// Words returns the vocabulary of all three splits.
func (c *Corpus) Words() map[string]bool {
	return Words(c.Train, c.Dev, c.Test)
}

func tokenize(s string) []string {
	var res []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			res = append(res, cur.String())
			cur.Reset()
		}
	}
	for _, ch := range s {
		switch ch {
		case '(', ')':
			flush()
			res = append(res, string(ch))
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			cur.WriteRune(ch)
		}
	}
	flush()
	return res
}

type parser struct {
	tokens []string
	idx    int
}

func (p *parser) next() (string, bool) {
	if p.idx == len(p.tokens) {
		return "", false
	}
	p.idx++
	return p.tokens[p.idx-1], true
}

func (p *parser) peek() string {
	if p.idx == len(p.tokens) {
		return ""
	}
	return p.tokens[p.idx]
}

func (p *parser) tree() (*Tree, error) {
	if tok, ok := p.next(); !ok {
		return nil, io.ErrUnexpectedEOF
	} else if tok != "(" {
		return nil, fmt.Errorf("expected ( but got %q", tok)
	}

	labelTok, ok := p.next()
	if !ok {
		return nil, io.ErrUnexpectedEOF
	} else if labelTok == "(" || labelTok == ")" {
		return nil, fmt.Errorf("expected label but got %q", labelTok)
	}
	label, err := strconv.Atoi(labelTok)
	if err != nil {
		return nil, fmt.Errorf("invalid label %q", labelTok)
	} else if label < 0 || label > MaxLabel {
		return nil, fmt.Errorf("label %d out of range [0, %d]", label, MaxLabel)
	}
	res := &Tree{Label: label}

	switch p.peek() {
	case "":
		return nil, io.ErrUnexpectedEOF
	case ")":
		return nil, fmt.Errorf("empty node with label %d", label)
	case "(":
		for p.peek() == "(" {
			child, err := p.tree()
			if err != nil {
				return nil, err
			}
			res.Children = append(res.Children, child)
		}
		if len(res.Children) > 2 {
			return nil, fmt.Errorf("node has %d children", len(res.Children))
		}
	default:
		word, _ := p.next()
		res.Word = ConvertWord(word)
	}

	if tok, ok := p.next(); !ok {
		return nil, io.ErrUnexpectedEOF
	} else if tok != ")" {
		return nil, fmt.Errorf("expected ) but got %q", tok)
	}
	return res, nil
}
