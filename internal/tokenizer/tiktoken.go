package tokenizer

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// EncodingO200kBase is the encoding name for GPT-4o.
	EncodingO200kBase = "o200k_base"
	// EncodingCL100kBase is the encoding name for GPT-4 and GPT-3.5-turbo.
	EncodingCL100kBase = "cl100k_base"
	// EncodingP50kBase is the encoding name for GPT-3.
	EncodingP50kBase = "p50k_base"
	// EncodingR50kBase is the encoding name for older GPT-3 models.
	EncodingR50kBase = "r50k_base"
)

// vocabSizes bounds the token IDs of each encoding, special tokens included.
var vocabSizes = map[string]int{
	EncodingO200kBase:  200019,
	EncodingCL100kBase: 100277,
	EncodingP50kBase:   50281,
	EncodingR50kBase:   50257,
}

// modelPrefixes maps model name prefixes to encodings; the first match wins.
var modelPrefixes = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", EncodingO200kBase},
	{"gpt-4", EncodingCL100kBase},
	{"gpt-3.5", EncodingCL100kBase},
	{"text-embedding-", EncodingCL100kBase},
	{"text-davinci-00", EncodingP50kBase},
	{"code-", EncodingP50kBase},
	{"davinci", EncodingR50kBase},
}

// TikToken wraps the pkoukk/tiktoken-go library for OpenAI tokenizers.
//
// Supported encodings:
//   - o200k_base: GPT-4o
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: GPT-3, davinci
//
// Encoding files are fetched by tiktoken-go on first use and cached in
// TIKTOKEN_CACHE_DIR when set.
type TikToken struct {
	encoding     *tiktoken.Tiktoken
	name         string
	encodingName string
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	if _, ok := vocabSizes[encodingName]; !ok {
		return nil, errors.Errorf("unknown tiktoken encoding %q", encodingName)
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiktoken encoding %q", encodingName)
	}

	return &TikToken{
		encoding:     encoding,
		name:         encodingName,
		encodingName: encodingName,
	}, nil
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-4o", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encodingName, ok := EncodingForModel(modelName)
	if !ok {
		return nil, errors.Errorf("no tiktoken encoding known for model %q", modelName)
	}

	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiktoken for model %q", modelName)
	}

	return &TikToken{
		encoding:     encoding,
		name:         modelName,
		encodingName: encodingName,
	}, nil
}

// New returns a tokenizer for name, which is either an encoding name or a
// model name.
func New(name string) (*TikToken, error) {
	if _, ok := vocabSizes[name]; ok {
		return NewTikToken(name)
	}
	return NewTikTokenForModel(name)
}

// EncodingForModel returns the encoding used by modelName.
func EncodingForModel(modelName string) (string, bool) {
	for _, m := range modelPrefixes {
		if strings.HasPrefix(modelName, m.prefix) {
			return m.encoding, true
		}
	}
	return "", false
}

// Encode converts text to token IDs. Special token markers in text are
// encoded as ordinary text.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.EncodeOrdinary(text)

	// Convert []int to []int32.
	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}

	return result, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	limit := t.VocabSize()
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || int(tok) >= limit {
			return "", errors.Errorf("token %d at position %d outside vocabulary of %s", tok, i, t.name)
		}
		intTokens[i] = int(tok)
	}

	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the size of the encoding's token ID space.
func (t *TikToken) VocabSize() int {
	return vocabSizes[t.encodingName]
}

// Name returns the encoding or model name the tokenizer was created with.
func (t *TikToken) Name() string {
	return t.name
}

// EncodingName returns the underlying encoding name.
func (t *TikToken) EncodingName() string {
	return t.encodingName
}
