package chunker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Encoding is the BPE vocabulary used to count tokens. It matches the
// chat and embedding models served by the provider.
const Encoding = "cl100k_base"

// encoder loads the vocabulary from data compiled into the binary, so
// chunking never reaches the network.
var encoder = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	return tiktoken.GetEncoding(Encoding)
})

// token is a half-open byte span [start, end) in the source text.
type token struct {
	start int
	end   int
}

func mustEncoder() *tiktoken.Tiktoken {
	enc, err := encoder()
	if err != nil {
		panic(fmt.Sprintf("chunker: load %s: %v", Encoding, err))
	}
	return enc
}

// tokenize encodes text and maps each token back to the bytes it covers.
// Decoded tokens concatenate to the input, so the spans are contiguous.
func tokenize(text string) []token {
	enc := mustEncoder()
	ids := enc.Encode(text, nil, nil)

	tokens := make([]token, len(ids))
	offset := 0
	for i, id := range ids {
		n := len(enc.Decode([]int{id}))
		tokens[i] = token{start: offset, end: offset + n}
		offset += n
	}
	return tokens
}

// CountTokens returns the number of cl100k_base tokens in text.
func CountTokens(text string) int {
	return len(mustEncoder().Encode(text, nil, nil))
}

// endsSentence reports whether a cut directly after tokens[i] falls on a
// sentence boundary: terminal punctuation or a line break.
func endsSentence(text string, tokens []token, i int) bool {
	piece := text[tokens[i].start:tokens[i].end]
	if strings.Contains(piece, "\n") {
		return true
	}
	piece = strings.TrimRight(piece, " \t")
	return strings.HasSuffix(piece, ".") || strings.HasSuffix(piece, "?") || strings.HasSuffix(piece, "!")
}
