package trainer

import (
	"compress/lzw"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/neurlang/hmmgrad/objective"
)

// Checkpoint is the saved state of a parameter vector.
type Checkpoint struct {
	Blocks     []int     `json:"blocks,omitempty"` // sizes of the init, trans and obs blocks
	Parameters []float64 `json:"parameters"`
	Value      *float64  `json:"value,omitempty"` // absent when not finite
}

// ErrCheckpointMismatch reports a checkpoint that does not fit the objective.
var ErrCheckpointMismatch = errors.New("checkpoint does not match the objective")

type layouted interface {
	Layout() objective.Layout
}

func blocks(fn Function) []int {
	l, ok := fn.(layouted)
	if !ok {
		return nil
	}
	layout := l.Layout()
	var out []int
	for _, b := range objective.Blocks {
		out = append(out, layout.Size(b))
	}
	return out
}

// WriteCheckpoint writes the parameters of fn to w as lzw compressed JSON.
func WriteCheckpoint(w io.Writer, fn Function) error {
	cp := Checkpoint{
		Blocks:     blocks(fn),
		Parameters: fn.Parameters(),
	}
	if v := fn.Value(); !math.IsInf(v, 0) && !math.IsNaN(v) {
		cp.Value = &v
	}
	lw := lzw.NewWriter(w, lzw.LSB, 8)
	if err := json.NewEncoder(lw).Encode(&cp); err != nil {
		lw.Close()
		return err
	}
	return lw.Close()
}

// ReadCheckpoint reads a checkpoint written by WriteCheckpoint.
func ReadCheckpoint(r io.Reader) (*Checkpoint, error) {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()
	var cp Checkpoint
	if err := json.NewDecoder(lr).Decode(&cp); err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	return &cp, nil
}

// WriteCheckpointFile writes the parameters of fn to the file name.
func WriteCheckpointFile(name string, fn Function) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = WriteCheckpoint(file, fn)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadCheckpointFile reads the checkpoint in the file name.
func ReadCheckpointFile(name string) (*Checkpoint, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCheckpoint(file)
}

// Apply sets the parameters of fn to the checkpoint's after checking that the
// vector and, when both sides know it, the block layout agree.
func (cp *Checkpoint) Apply(fn Function) error {
	if len(cp.Parameters) != fn.NumParams() {
		return fmt.Errorf("%w: %d parameters, objective has %d", ErrCheckpointMismatch, len(cp.Parameters), fn.NumParams())
	}
	if want := blocks(fn); cp.Blocks != nil && want != nil {
		if len(want) != len(cp.Blocks) {
			return fmt.Errorf("%w: blocks %v, objective %v", ErrCheckpointMismatch, cp.Blocks, want)
		}
		for i := range want {
			if want[i] != cp.Blocks[i] {
				return fmt.Errorf("%w: blocks %v, objective %v", ErrCheckpointMismatch, cp.Blocks, want)
			}
		}
	}
	fn.SetParameters(cp.Parameters)
	return nil
}

// Resume loads the checkpoint file name into fn.
func Resume(fn Function, name string) error {
	cp, err := ReadCheckpointFile(name)
	if err != nil {
		return err
	}
	return cp.Apply(fn)
}
