// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer turns text into token ids for the attention playground.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE encodings (o200k_base, cl100k_base, p50k_base, r50k_base)
//
// Example usage:
//
//	import "github.com/born-ml/mha/tokenizer"
//
//	tok, err := tokenizer.New("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/born-ml/mha/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// TikToken is a tokenizer backed by an OpenAI BPE encoding.
type TikToken = tokenizer.TikToken

// Encoding names.
const (
	EncodingO200kBase  = tokenizer.EncodingO200kBase
	EncodingCL100kBase = tokenizer.EncodingCL100kBase
	EncodingP50kBase   = tokenizer.EncodingP50kBase
	EncodingR50kBase   = tokenizer.EncodingR50kBase
)

// New loads name as an encoding, or as a model name when it is not one.
//
// Example:
//
//	tok, err := tokenizer.New("gpt-4")
func New(name string) (*TikToken, error) {
	return tokenizer.New(name)
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "o200k_base", "cl100k_base" (GPT-4), "p50k_base", "r50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}

// EncodingForModel returns the encoding a model name uses.
func EncodingForModel(modelName string) (string, bool) {
	return tokenizer.EncodingForModel(modelName)
}
