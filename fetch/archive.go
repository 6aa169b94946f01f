package fetch

import (
	"context"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Default download locations.
const (
	SSTURL   = "https://nlp.stanford.edu/sentiment/trainDevTestTrees_PTB.zip"
	GloveURL = "https://nlp.stanford.edu/data/glove.840B.300d.zip"
)

// An Archive is a remote zip file from which some files
// are needed.
type Archive struct {
	URL string

	// ZipName is the local name of the downloaded archive.
	ZipName string

	// Files lists the archive entries to extract.
	Files []string

	// KeepZip prevents the archive from being deleted once
	// its files are extracted.
	KeepZip bool
}

// SSTArchive returns the Stanford Sentiment Treebank
// archive.
// Its trees end up in the "trees" subdirectory.
func SSTArchive(url string) *Archive {
	return &Archive{
		URL:     url,
		ZipName: "trainDevTestTrees_PTB.zip",
		Files:   []string{"trees/train.txt", "trees/dev.txt", "trees/test.txt"},
	}
}

// GloveArchive returns a GloVe vector archive containing
// the file fileName.
func GloveArchive(url, fileName string) *Archive {
	return &Archive{
		URL:     url,
		ZipName: path.Base(url),
		Files:   []string{fileName},
	}
}

// Missing returns the archive entries not yet present in
// dir.
func (a *Archive) Missing(dir string) []string {
	var res []string
	for _, name := range a.Files {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			res = append(res, name)
		}
	}
	return res
}

// Ensure downloads and extracts the archive into dir
// unless all of its files are already there.
func (a *Archive) Ensure(ctx context.Context, client *http.Client, dir string) error {
	missing := a.Missing(dir)
	if len(missing) == 0 {
		return nil
	}
	zipPath := filepath.Join(dir, a.ZipName)
	if err := Download(ctx, client, a.URL, zipPath); err != nil {
		return err
	}
	wanted := map[string]bool{}
	for _, name := range missing {
		wanted[name] = true
	}
	log.Printf("Extracting %s ...", a.ZipName)
	if _, err := Unzip(zipPath, dir, func(name string) bool {
		return wanted[name]
	}); err != nil {
		return err
	}
	if rest := a.Missing(dir); len(rest) > 0 {
		return &MissingError{Archive: a.ZipName, Files: rest}
	}
	if !a.KeepZip {
		return os.Remove(zipPath)
	}
	return nil
}

// A MissingError indicates that an archive did not
// contain the expected files.
type MissingError struct {
	Archive string
	Files   []string
}

func (m *MissingError) Error() string {
	return "archive " + m.Archive + " is missing files: " + strings.Join(m.Files, ", ")
}
