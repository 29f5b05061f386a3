package playground

import (
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/mha/internal/backend/cpu"
	"github.com/born-ml/mha/internal/nn"
	"github.com/born-ml/mha/internal/parallel"
	"github.com/born-ml/mha/internal/serialization"
	"github.com/born-ml/mha/internal/tensor"
	"github.com/born-ml/mha/internal/tokenizer"
)

// Attention is the block type the playground runs.
type Attention = nn.MultiHeadAttention[*cpu.CPUBackend]

// Report is the result of one run.
type Report struct {
	Config         Config
	Input          *tensor.Tensor[*cpu.CPUBackend]
	Outputs        *nn.AttentionOutputs[*cpu.CPUBackend]
	Tokens         []int32 // Token ids of Config.Text, nil for random input
	NumParameters  int
	ParameterBytes int
	Passes         int
	Elapsed        time.Duration // Total time spent in Forward
}

// PerPass returns the mean duration of one Forward call.
func (r *Report) PerPass() time.Duration {
	if r.Passes == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Passes)
}

// Run builds the block, generates its input and runs Forward cfg.Repeat
// times. The report is rendered to out; a progress bar is drawn on progress
// when there is more than one pass and progress is not nil.
//
// Input is generated before the parameters, both from one generator seeded
// with cfg.Seed, so a run is reproducible.
func Run(cfg Config, out io.Writer, progress io.Writer) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "playground")
	}

	backend := newBackend(cfg.Workers)
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible demo input, not security related

	report := &Report{Config: cfg}
	x, tokens, err := makeInput(cfg, rng, backend)
	if err != nil {
		return nil, err
	}
	report.Input, report.Tokens = x, tokens

	moduleCfg := cfg.ModuleConfig()
	moduleCfg.Rand = rng
	mha, err := nn.NewMultiHeadAttention(moduleCfg, backend)
	if err != nil {
		return nil, errors.WithMessage(err, "playground")
	}
	if cfg.LoadWeights != "" {
		file, err := serialization.ReadFile(cfg.LoadWeights)
		if err != nil {
			return nil, errors.WithMessagef(err, "playground: loading %s", cfg.LoadWeights)
		}
		if err := mha.LoadStateDict(file.Tensors); err != nil {
			return nil, errors.WithMessagef(err, "playground: loading %s", cfg.LoadWeights)
		}
		klog.V(1).Infof("playground: loaded %d tensors from %s", len(file.Tensors), cfg.LoadWeights)
	}
	for _, p := range mha.Parameters() {
		report.ParameterBytes += p.ByteSize()
	}
	report.NumParameters = mha.NumParameters()

	klog.V(1).Infof("playground: input %v %s, %d pass(es)", x.Shape(), x.DType(), cfg.Repeat)

	var bar *progressbar.ProgressBar
	if cfg.Repeat > 1 && progress != nil {
		bar = newProgressBar(cfg.Repeat, progress)
	}

	for i := 0; i < cfg.Repeat; i++ {
		start := time.Now()
		outputs, err := mha.Forward(x)
		report.Elapsed += time.Since(start)
		if err != nil {
			return nil, errors.WithMessagef(err, "playground: pass %d", i)
		}
		report.Outputs = outputs
		report.Passes++
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if cfg.SaveWeights != "" {
		if err := serialization.WriteFile(cfg.SaveWeights, mha.StateDict(), weightsMetadata(cfg)); err != nil {
			return nil, errors.WithMessagef(err, "playground: saving %s", cfg.SaveWeights)
		}
		klog.V(1).Infof("playground: saved weights to %s", cfg.SaveWeights)
	}

	if out != nil {
		if err := report.Render(out); err != nil {
			return nil, errors.Wrap(err, "playground: rendering report")
		}
	}
	return report, nil
}

// weightsMetadata describes the block in the header of a saved weights file.
func weightsMetadata(cfg Config) map[string]string {
	return map[string]string{
		"format":    "pt",
		"num_heads": strconv.Itoa(cfg.NumHeads),
		"d_model":   strconv.Itoa(cfg.DModel),
		"dtype":     cfg.ModuleDType.String(),
	}
}

func newBackend(workers int) *cpu.CPUBackend {
	switch workers {
	case 0:
		return cpu.New()
	case 1:
		return cpu.New(cpu.WithParallel(parallel.Sequential()))
	default:
		cfg := parallel.DefaultConfig()
		cfg.Enabled = true
		cfg.NumWorkers = workers
		return cpu.New(cpu.WithParallel(cfg))
	}
}

// makeInput returns random normal input, or the embedded tokens of cfg.Text.
func makeInput(cfg Config, rng *rand.Rand, backend *cpu.CPUBackend) (*tensor.Tensor[*cpu.CPUBackend], []int32, error) {
	if cfg.Text == "" {
		return tensor.Randn(tensor.Shape{cfg.Batch, cfg.SeqLen, cfg.DModel}, cfg.InputDType, rng, backend), nil, nil
	}

	tok, err := tokenizer.New(cfg.Encoding)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "playground")
	}
	ids, err := tok.Encode(cfg.Text)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "playground: encoding text")
	}
	if len(ids) == 0 {
		return nil, nil, errors.Wrapf(nn.ErrShapeMismatch, "playground: text %q encodes to no tokens", cfg.Text)
	}
	klog.V(1).Infof("playground: %d tokens from %s", len(ids), tok.Name())

	embed := nn.NewEmbedding(tok.VocabSize(), cfg.DModel, cfg.InputDType, rng, backend)
	x, err := embed.Forward(ids)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "playground")
	}
	return x, ids, nil
}

func newProgressBar(steps int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("forward"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("passes"),
		progressbar.OptionShowCount(),
	)
}
