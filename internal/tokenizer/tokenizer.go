package tokenizer

// Tokenizer is the core interface for text tokenization.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the size of the token ID space.
	// Every ID returned by Encode is below VocabSize.
	VocabSize() int

	// Name returns the encoding or model name.
	Name() string
}
