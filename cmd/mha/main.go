// Package main provides the multi-head attention playground CLI.
//
// It builds an attention block, runs it on random (or tokenized) input and
// prints the shape of every intermediate tensor:
//
//	mha                                   # 4 heads, d_model 32, (1, 3, 32) float16
//	mha -dtype float32 -input_dtype float64 -batch 2 -seq 6
//	mha -text "Attention is all you need" -show_weights
//	mha -repeat 1000 -v 1
//	mha -save /tmp/mha.safetensors && mha -load /tmp/mha.safetensors
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/born-ml/mha/internal/playground"
	"github.com/born-ml/mha/internal/tensor"
)

const version = "v0.1.0"

var defaults = playground.DefaultConfig()

var (
	flagHeads       = flag.Int("heads", defaults.NumHeads, "Number of attention heads; must divide -d_model.")
	flagDModel      = flag.Int("d_model", defaults.DModel, "Model dimension.")
	flagBatch       = flag.Int("batch", defaults.Batch, "Batch size of the random input.")
	flagSeq         = flag.Int("seq", defaults.SeqLen, "Sequence length of the random input.")
	flagDType       = flag.String("dtype", defaults.ModuleDType.String(), "Precision of the attention block: float16, float32 or float64.")
	flagInputDType  = flag.String("input_dtype", defaults.InputDType.String(), "Precision of the input; cast to -dtype when different.")
	flagSeed        = flag.Int64("seed", defaults.Seed, "Seed for input and parameters.")
	flagText        = flag.String("text", "", "Tokenize and embed this text instead of using random input.")
	flagEncoding    = flag.String("encoding", defaults.Encoding, "Tiktoken encoding or model name used with -text.")
	flagRepeat      = flag.Int("repeat", defaults.Repeat, "Number of forward passes.")
	flagShowWeights = flag.Bool("show_weights", false, "Print the attention weights of batch 0, head 0.")
	flagWorkers     = flag.Int("workers", 0, "CPU workers; 0 uses all cores, 1 runs sequentially.")
	flagLoad        = flag.String("load", "", "Load attention weights from this SafeTensors file.")
	flagSave        = flag.String("save", "", "Save attention weights to this SafeTensors file.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("mha %s\n", version)
		return
	}
	if flag.NArg() > 0 {
		klog.Exitf("Unexpected arguments %q. See 'mha -help'.", flag.Args())
	}

	cfg := playground.Config{
		NumHeads:    *flagHeads,
		DModel:      *flagDModel,
		Batch:       *flagBatch,
		SeqLen:      *flagSeq,
		ModuleDType: must.M1(tensor.ParseDataType(*flagDType)),
		InputDType:  must.M1(tensor.ParseDataType(*flagInputDType)),
		Seed:        *flagSeed,
		Text:        *flagText,
		Encoding:    *flagEncoding,
		Repeat:      *flagRepeat,
		ShowWeights: *flagShowWeights,
		Workers:     *flagWorkers,
		LoadWeights: *flagLoad,
		SaveWeights: *flagSave,
	}

	if _, err := playground.Run(cfg, os.Stdout, os.Stderr); err != nil {
		klog.Exitf("%+v", err)
	}
	klog.Flush()
}
