package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/train"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	valueColor  = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed, color.Bold)
)

var labelNames = [treelstm.NumClasses]string{
	"very negative", "negative", "neutral", "positive", "very positive",
}

// printMetrics writes a colored report of metrics.
func printMetrics(w io.Writer, name string, m *train.Metrics) {
	headerColor.Fprintf(w, "%s (%d trees, %d nodes)\n", name, m.Trees, m.Nodes)
	rows := []struct {
		label string
		value float64
	}{
		{"loss per tree", m.MeanLoss()},
		{"all accuracy", m.AllAccuracy()},
		{"root accuracy", m.RootAccuracy()},
		{"all binary", m.AllBinary()},
		{"root binary", m.RootBinary()},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-14s %s\n", r.label, valueColor.Sprintf("%.4f", r.value))
	}
}

// printPrediction writes the root distribution of a tree.
func printPrediction(w io.Writer, sentence string, probs []float64) {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	headerColor.Fprintf(w, "%s\n", sentence)
	var parts []string
	for i, p := range probs {
		part := fmt.Sprintf("%s=%.3f", labelNames[i], p)
		if i == best {
			part = valueColor.Sprint(part)
		}
		parts = append(parts, part)
	}
	fmt.Fprintf(w, "  %d (%s): %s\n", best, labelNames[best], strings.Join(parts, " "))
}
