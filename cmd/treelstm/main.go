// Command treelstm trains and applies a TreeLSTM
// sentiment classifier on the Stanford Sentiment Treebank.
package main

import (
	"github.com/unixpickle/treelstm/internal/cli"
)

func main() {
	cli.Execute()
}
