package sst

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var bracketEscapes = map[string]string{
	"-LRB-": "(",
	"-RRB-": ")",
	"-LSB-": "[",
	"-RSB-": "]",
	"-LCB-": "{",
	"-RCB-": "}",
}

var wordUnescaper = strings.NewReplacer(`\/`, "/", `\*`, "*")
var wordEscaper = strings.NewReplacer("/", `\/`, "*", `\*`)

// ConvertWord turns a treebank token into the form used
// by word vector files.
//
// Bracket escapes like -LRB- become brackets, escaped
// slashes and asterisks are unescaped, and the result is
// put in Unicode normal form C.
func ConvertWord(token string) string {
	if w, ok := bracketEscapes[token]; ok {
		return w
	}
	return norm.NFC.String(wordUnescaper.Replace(token))
}

func escapeWord(word string) string {
	for escape, w := range bracketEscapes {
		if w == word {
			return escape
		}
	}
	return wordEscaper.Replace(word)
}
