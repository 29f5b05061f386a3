// Package tokenizer turns text into token ids for the attention playground.
//
// The playground's text mode embeds the ids of a short prompt and feeds them
// to the attention block instead of random input. Tokenization is provided by
// OpenAI's BPE encodings through tiktoken-go.
//
// Example usage:
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, err := tok.Encode("Hello, world!")
//	text, err := tok.Decode(ids)
package tokenizer
