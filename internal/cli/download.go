package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/unixpickle/treelstm/fetch"
)

var downloadSSTOnly bool

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and extract the treebank and GloVe vectors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		sst := fetch.SSTArchive(cfg.SSTURL)
		sst.KeepZip = cfg.KeepZips
		if err := ensureArchive(ctx, sst, cfg.SSTDir()); err != nil {
			return err
		}
		if downloadSSTOnly {
			return nil
		}
		vectors := fetch.GloveArchive(cfg.GloveURL, cfg.GloveFile)
		vectors.KeepZip = cfg.KeepZips
		return ensureArchive(ctx, vectors, cfg.DataDir)
	},
}

func ensureArchive(ctx context.Context, a *fetch.Archive, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if len(a.Missing(dir)) == 0 {
		log.Printf("%s: already extracted in %s", a.ZipName, dir)
		return nil
	}
	return a.Ensure(ctx, http.DefaultClient, dir)
}

func init() {
	downloadCmd.Flags().BoolVar(&downloadSSTOnly, "sst-only", false,
		"skip the GloVe vectors")
	downloadCmd.Flags().Bool("keep-zips", false, "keep archives after extraction")
	bindFlags(downloadCmd.Flags(), map[string]string{"keep_zips": "keep-zips"})
	rootCmd.AddCommand(downloadCmd)
}
