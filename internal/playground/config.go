// Package playground runs the attention block on sample input and reports the
// shapes of everything it computes.
package playground

import (
	"github.com/pkg/errors"

	"github.com/born-ml/mha/internal/nn"
	"github.com/born-ml/mha/internal/tensor"
	"github.com/born-ml/mha/internal/tokenizer"
)

// Config describes one playground run.
type Config struct {
	NumHeads    int             // Attention heads
	DModel      int             // Model dimension
	Batch       int             // Batch size of random input
	SeqLen      int             // Sequence length of random input
	ModuleDType tensor.DataType // Precision of the attention block
	InputDType  tensor.DataType // Precision of the generated input
	Seed        int64           // Seeds input and parameters

	// Text, when set, replaces the random input: it is tokenized with
	// Encoding and embedded as a batch of one sequence.
	Text     string
	Encoding string

	Repeat      int  // Forward passes to run; the report shows the last one
	ShowWeights bool // Print the attention weights of batch 0, head 0
	Workers     int  // CPU workers; 0 picks the default, 1 runs sequentially

	// LoadWeights and SaveWeights are SafeTensors paths. Loaded weights
	// replace the seeded initialization; the input is still seeded.
	LoadWeights string
	SaveWeights string
}

// DefaultConfig is the half precision demo: 4 heads over d_model 32 and an
// input of shape (1, 3, 32).
func DefaultConfig() Config {
	return Config{
		NumHeads:    4,
		DModel:      32,
		Batch:       1,
		SeqLen:      3,
		ModuleDType: tensor.Float16,
		InputDType:  tensor.Float16,
		Encoding:    tokenizer.EncodingCL100kBase,
		Repeat:      1,
	}
}

// ModuleConfig returns the attention block configuration of the run.
func (c Config) ModuleConfig() nn.MHAConfig {
	return nn.MHAConfig{
		NumHeads: c.NumHeads,
		DModel:   c.DModel,
		DType:    c.ModuleDType,
	}
}

// Validate reports settings the playground cannot run with. Errors in the
// block configuration wrap nn.ErrInvalidConfig.
func (c Config) Validate() error {
	if err := c.ModuleConfig().Validate(); err != nil {
		return err
	}
	if !c.InputDType.IsFloat() {
		return errors.Wrapf(nn.ErrInvalidConfig, "unsupported input dtype %s", c.InputDType)
	}
	if c.Text == "" && (c.Batch <= 0 || c.SeqLen <= 0) {
		return errors.Wrapf(nn.ErrInvalidConfig, "batch and seq_len must be positive, got %d and %d", c.Batch, c.SeqLen)
	}
	if c.Text != "" && c.Encoding == "" {
		return errors.Wrap(nn.ErrInvalidConfig, "text input requires an encoding")
	}
	if c.Repeat <= 0 {
		return errors.Wrapf(nn.ErrInvalidConfig, "repeat must be positive, got %d", c.Repeat)
	}
	if c.Workers < 0 {
		return errors.Wrapf(nn.ErrInvalidConfig, "workers must not be negative, got %d", c.Workers)
	}
	return nil
}
