package playground

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/born-ml/mha/internal/nn"
)

// Row describes one returned tensor.
type Row struct {
	Name     string
	Shape    string
	DType    string
	Elements int
}

// Rows returns one row per attention output, in Tuple order.
func (r *Report) Rows() []Row {
	names := nn.OutputNames()
	rows := make([]Row, 0, len(names))
	for i, t := range r.Outputs.Tuple() {
		rows = append(rows, Row{
			Name:     names[i],
			Shape:    t.Shape().String(),
			DType:    t.DType().String(),
			Elements: t.NumElements(),
		})
	}
	return rows
}

// Render writes the report to w: the input, a table of output shapes, the
// parameter summary and, when configured, the attention weights of batch 0,
// head 0.
func (r *Report) Render(w io.Writer) error {
	re := lipgloss.NewRenderer(w)
	title := re.NewStyle().Bold(true)

	cfg := r.Config
	if _, err := fmt.Fprintln(w, title.Render(fmt.Sprintf("Multi-head attention: %d heads, d_model %d, d_head %d, %s",
		cfg.NumHeads, cfg.DModel, cfg.DModel/cfg.NumHeads, cfg.ModuleDType))); err != nil {
		return err
	}
	if r.Tokens != nil {
		if _, err := fmt.Fprintf(w, "tokens (%s): %v\n", cfg.Encoding, r.Tokens); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "input: %v %s\n", r.Input.Shape(), r.Input.DType()); err != nil {
		return err
	}

	table := newTable(re, lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right).
		Headers("output", "shape", "dtype", "elements")
	for _, row := range r.Rows() {
		table.Row(row.Name, row.Shape, row.DType, humanize.Comma(int64(row.Elements)))
	}
	if _, err := fmt.Fprintln(w, table.Render()); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "parameters: %s (%s)\n",
		humanize.Comma(int64(r.NumParameters)), humanize.Bytes(uint64(r.ParameterBytes))); err != nil {
		return err
	}
	if r.Passes > 1 {
		if _, err := fmt.Fprintf(w, "forward: %d passes, %s per pass\n", r.Passes, r.PerPass()); err != nil {
			return err
		}
	}

	if cfg.ShowWeights {
		if _, err := fmt.Fprintln(w, r.weightsTable(re).Render()); err != nil {
			return err
		}
	}
	return nil
}

// weightsTable lays out weights[0, 0] with one row per query position.
func (r *Report) weightsTable(re *lipgloss.Renderer) *lgtable.Table {
	weights := r.Outputs.Weights
	seq := weights.Shape()[2]

	headers := make([]string, seq+1)
	headers[0] = "q \\ k"
	for j := 0; j < seq; j++ {
		headers[j+1] = strconv.Itoa(j)
	}

	table := newTable(re, lipgloss.Right).Headers(headers...)
	for i := 0; i < seq; i++ {
		row := make([]string, seq+1)
		row[0] = strconv.Itoa(i)
		for j := 0; j < seq; j++ {
			row[j+1] = strconv.FormatFloat(weights.At(0, 0, i, j), 'f', 4, 64)
		}
		table.Row(row...)
	}
	return table
}

// newTable returns a bordered table with a reversed header; alignments apply
// per column, the last one repeating.
func newTable(re *lipgloss.Renderer, alignments ...lipgloss.Position) *lgtable.Table {
	header := re.NewStyle().Reverse(true).Padding(0, 1)
	cell := re.NewStyle().Padding(0, 1)

	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(re.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := cell
			if row < 0 {
				s = header
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
}
