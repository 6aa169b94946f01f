package glove

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/unixpickle/essentials"
)

// Filter copies the lines of an embedding file whose word
// is in words.
// Only the first line for each word is copied.
//
// It returns the number of lines written.
func Filter(r io.Reader, w io.Writer, words map[string]bool, dim int) (int, error) {
	out := bufio.NewWriter(w)
	seen := map[string]bool{}
	var count int
	err := scanLines(r, func(line string) error {
		word, _, err := splitLine(line, dim)
		if err != nil {
			return err
		}
		if !words[word] || seen[word] {
			return nil
		}
		seen[word] = true
		count++
		if _, err := out.WriteString(line); err != nil {
			return err
		}
		return out.WriteByte('\n')
	})
	if err == nil {
		err = out.Flush()
	}
	if err != nil {
		return count, essentials.AddCtx("filter embeddings", err)
	}
	return count, nil
}

// FilterFile runs Filter from one file to another.
// The output is written to a temporary file first, so an
// interrupted run never leaves a partial output behind.
func FilterFile(src, dst string, words map[string]bool, dim int) (count int, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, essentials.AddCtx("filter embeddings", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, essentials.AddCtx("filter embeddings", err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(out.Name())
		}
	}()

	count, err = Filter(in, out, words, dim)
	if err != nil {
		return count, err
	}
	if err = out.Close(); err != nil {
		return count, essentials.AddCtx("filter embeddings", err)
	}
	if err = os.Rename(out.Name(), dst); err != nil {
		return count, essentials.AddCtx("filter embeddings", err)
	}
	return count, nil
}
