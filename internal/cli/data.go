package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/unixpickle/treelstm/config"
	"github.com/unixpickle/treelstm/glove"
	"github.com/unixpickle/treelstm/sst"
	"github.com/unixpickle/treelstm/train"
)

// dataset holds the treebank and its word vectors.
type dataset struct {
	Corpus     *sst.Corpus
	Embeddings *glove.Embeddings
}

// loadDataset reads the treebank and the filtered vectors,
// creating the filtered file from the full GloVe file if
// it is missing.
func loadDataset(cfg *config.Config) (*dataset, error) {
	corpus, err := sst.LoadCorpus(cfg.TreesDir())
	if err != nil {
		return nil, fmt.Errorf("load treebank (run download first?): %w", err)
	}
	log.Printf("Loaded %d/%d/%d train/dev/test trees", len(corpus.Train),
		len(corpus.Dev), len(corpus.Test))

	if _, err := os.Stat(cfg.FilteredPath()); os.IsNotExist(err) {
		if err := filterVectors(cfg, corpus); err != nil {
			return nil, err
		}
	}
	emb, err := glove.LoadFile(cfg.FilteredPath(), cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("load word vectors: %w", err)
	}
	log.Printf("Loaded %d word vectors (%.1f%% vocabulary coverage)", emb.Vocab.Len(),
		100*emb.Vocab.Coverage(corpus.Words()))
	return &dataset{Corpus: corpus, Embeddings: emb}, nil
}

func filterVectors(cfg *config.Config, corpus *sst.Corpus) error {
	words := corpus.Words()
	log.Printf("Filtering %s to %d treebank words ...", cfg.GlovePath(), len(words))
	count, err := glove.FilterFile(cfg.GlovePath(), cfg.FilteredPath(), words,
		cfg.EmbeddingDim)
	if err != nil {
		return fmt.Errorf("filter word vectors: %w", err)
	}
	log.Printf("Wrote %d vectors to %s", count, cfg.FilteredPath())
	return nil
}

// samples indexes a split with the dataset's vocabulary.
func (d *dataset) samples(name string, trees []*sst.Tree) (train.SampleList, error) {
	res, err := train.NewSampleList(trees, d.Embeddings.Vocab.Index)
	if err != nil {
		return nil, fmt.Errorf("index %s trees: %w", name, err)
	}
	return res, nil
}

// splits indexes the train, dev and test trees.
func (d *dataset) splits() (trainSet, devSet, testSet train.SampleList, err error) {
	if trainSet, err = d.samples("train", d.Corpus.Train); err != nil {
		return
	}
	if devSet, err = d.samples("dev", d.Corpus.Dev); err != nil {
		return
	}
	testSet, err = d.samples("test", d.Corpus.Test)
	return
}
