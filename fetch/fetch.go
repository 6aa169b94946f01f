// Package fetch downloads and extracts the corpora used
// for training.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/unixpickle/essentials"
)

// LogInterval is the number of bytes between progress
// messages during a download.
var LogInterval int64 = 64 << 20

// Download fetches a URL into dest.
//
// If dest already exists, nothing is done.
// The data is written to a temporary file in the same
// directory and renamed once complete.
func Download(ctx context.Context, client *http.Client, url, dest string) (err error) {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	defer func() {
		if err != nil {
			err = essentials.AddCtx("download "+url, err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	log.Printf("Downloading %s ...", url)
	progress := &progressWriter{name: filepath.Base(dest), total: resp.ContentLength}
	if _, err := io.Copy(io.MultiWriter(tmp, progress), resp.Body); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

type progressWriter struct {
	name    string
	total   int64
	written int64
	logged  int64
}

func (p *progressWriter) Write(data []byte) (int, error) {
	p.written += int64(len(data))
	if p.written-p.logged >= LogInterval {
		p.logged = p.written
		if p.total > 0 {
			log.Printf("%s: %d/%d MiB", p.name, p.written>>20, p.total>>20)
		} else {
			log.Printf("%s: %d MiB", p.name, p.written>>20)
		}
	}
	return len(data), nil
}

// Unzip extracts the regular files of a zip archive into
// destDir.
// If keep is non-nil, only entries it accepts are
// extracted.
//
// Entries which would land outside of destDir are
// rejected.
// The paths of the extracted files are returned.
func Unzip(zipPath, destDir string, keep func(name string) bool) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, essentials.AddCtx("unzip", err)
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, essentials.AddCtx("unzip", err)
	}

	var res []string
	for _, f := range r.File {
		if !f.Mode().IsRegular() || (keep != nil && !keep(f.Name)) {
			continue
		}
		dest := filepath.Join(root, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(dest, root+string(filepath.Separator)) {
			return nil, fmt.Errorf("unzip: illegal path: %s", f.Name)
		}
		if err := extractFile(f, dest); err != nil {
			return nil, essentials.AddCtx("unzip "+f.Name, err)
		}
		res = append(res, dest)
	}
	return res, nil
}

// extractFile writes an entry to a temporary file next
// to dest and renames it once the entry's checksum has
// been verified, so dest is never left truncated.
func extractFile(f *zip.File, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(out.Name())
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(out.Name(), dest)
}
