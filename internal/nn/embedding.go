package nn

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/mha/internal/tensor"
)

// Embedding is a lookup table that maps token ids to dense vectors.
//
// The playground uses it to turn tokenized text into an attention input.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim]
//   - Forward: ids [seq] -> embeddings [1, seq, EmbedDim]
//
// Example:
//
//	embed := nn.NewEmbedding(100256, 32, tensor.Float16, rng, backend)
//	x, err := embed.Forward([]int32{9906, 11, 1917}) // Shape: [1, 3, 32]
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int           // Number of embeddings (vocabulary size)
	EmbedDim int           // Embedding dimension (vector size)
	backend  B
}

// NewEmbedding creates a new Embedding layer with weights drawn from N(0, 1),
// as torch.nn.Embedding does.
//
// Parameters:
//   - numEmbeddings: Size of the embedding dictionary (e.g., vocabulary size)
//   - embeddingDim: Dimension of each embedding vector
//   - dtype: Weight precision
//   - rng: Random source (nil uses a time-seeded source)
//   - backend: Computation backend
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, dtype tensor.DataType, rng *rand.Rand, backend B) *Embedding[B] {
	weight := Normal(tensor.Shape{numEmbeddings, embeddingDim}, dtype, ensureRand(rng), backend)

	return &Embedding[B]{
		Weight:   NewParameter("embedding.weight", weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
		backend:  backend,
	}
}

// Forward looks up ids and returns a [1, len(ids), EmbedDim] batch of one
// sequence in the weight's precision.
//
// Errors wrap ErrShapeMismatch when ids is empty or an id is outside
// [0, NumEmbed).
func (e *Embedding[B]) Forward(ids []int32) (*tensor.Tensor[B], error) {
	if len(ids) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "embedding: empty id sequence")
	}

	weight := e.Weight.Tensor().Raw()
	out, err := tensor.NewRaw(tensor.Shape{1, len(ids), e.EmbedDim}, weight.DType(), weight.Device())
	if err != nil {
		return nil, errors.Wrap(err, "embedding")
	}

	rowBytes := e.EmbedDim * weight.DType().Size()
	src, dst := weight.Data(), out.Data()
	for i, id := range ids {
		if id < 0 || int(id) >= e.NumEmbed {
			return nil, errors.Wrapf(ErrShapeMismatch, "embedding: id %d at position %d out of range [0, %d)", id, i, e.NumEmbed)
		}
		copy(dst[i*rowBytes:(i+1)*rowBytes], src[int(id)*rowBytes:(int(id)+1)*rowBytes])
	}

	return tensor.New(out, e.backend), nil
}

// Parameters returns the embedding weight.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}

// StateDict returns the weight keyed "weight".
func (e *Embedding[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{"weight": e.Weight.Tensor().Raw()}
}

// LoadStateDict copies a weight of matching shape and dtype into the table.
func (e *Embedding[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	src := stateDict["weight"]
	if err := checkParameter(e.Weight, src); err != nil {
		return errors.WithMessage(err, "embedding")
	}
	copyParameter(e.Weight, src)
	return nil
}
