// Package crowd models pedestrians and moves them across a building grid one
// tick at a time.
package crowd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"
)

var (
	// ErrInvalidDescriptors indicates a pedestrian file that is neither a flat
	// array nor a grouped caracterizations object.
	ErrInvalidDescriptors = errors.New("crowd: invalid pedestrian descriptors")
)

// Coefficients weight the terms of the movement cost of a pedestrian.
type Coefficients struct {
	// KD weights the dynamic floor field.
	KD float64 `json:"KD"`
	// KS weights the static (exit distance) field.
	KS float64 `json:"KS"`
	// KW weights the wall repulsion term.
	KW float64 `json:"KW"`
	// KI weights the local crowd density.
	KI float64 `json:"KI"`
}

// Descriptor describes one pedestrian before it is placed on a grid. Row and
// Col are optional; a pedestrian without both is placed by the scenario.
type Descriptor struct {
	Label string  `json:"label,omitempty"`
	Red   int     `json:"red"`
	Green int     `json:"green"`
	Blue  int     `json:"blue"`
	Speed float64 `json:"speed"`
	Coefficients
	Row *int `json:"row,omitempty"`
	Col *int `json:"col,omitempty"`
}

// HasPosition reports whether the descriptor pins the pedestrian to a cell.
func (d Descriptor) HasPosition() bool {
	return d.Row != nil && d.Col != nil
}

// flatDescriptor is the flat array form, which carries the colour as a triple.
type flatDescriptor struct {
	Descriptor
	Color []int `json:"color,omitempty"`
}

// caracterization is one entry of the grouped form.
type caracterization struct {
	Descriptor
	Amount int `json:"amount"`
}

type groupedDescriptors struct {
	Caracterizations []caracterization `json:"caracterizations"`
}

// ParseDescriptors decodes pedestrian descriptors in either the flat array form
// or the grouped form, expanding each group into Amount individual descriptors.
func ParseDescriptors(data []byte) ([]Descriptor, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding pedestrian descriptors: %w", err)
	}

	switch probe.(type) {
	case []any:
		var flat []flatDescriptor
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("decoding pedestrian array: %w", err)
		}
		return lo.Map(flat, func(f flatDescriptor, _ int) Descriptor {
			d := f.Descriptor
			if len(f.Color) >= 3 {
				d.Red, d.Green, d.Blue = f.Color[0], f.Color[1], f.Color[2]
			}
			return d.normalized()
		}), nil
	case map[string]any:
		var grouped groupedDescriptors
		if err := json.Unmarshal(data, &grouped); err != nil {
			return nil, fmt.Errorf("decoding pedestrian groups: %w", err)
		}
		if grouped.Caracterizations == nil {
			return nil, fmt.Errorf("%w: object form requires a caracterizations list", ErrInvalidDescriptors)
		}
		var out []Descriptor
		for i, c := range grouped.Caracterizations {
			if c.Amount < 0 {
				return nil, fmt.Errorf("%w: group %d has negative amount %d", ErrInvalidDescriptors, i, c.Amount)
			}
			for range c.Amount {
				d := c.Descriptor
				// positions are never shared by a group
				d.Row, d.Col = nil, nil
				out = append(out, d.normalized())
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected array or object, got %T", ErrInvalidDescriptors, probe)
	}
}

// LoadDescriptors reads and parses a pedestrian descriptor file.
func LoadDescriptors(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pedestrian descriptors: %w", err)
	}
	return ParseDescriptors(data)
}

func (d Descriptor) normalized() Descriptor {
	if d.Speed <= 0 {
		d.Speed = 1
	}
	return d
}

// Pedestrian is an agent on the grid during one simulation run.
type Pedestrian struct {
	ID       int
	Row, Col int
	Speed    float64
	Coefficients
}

// NewPedestrian places the descriptor at (row, col).
func NewPedestrian(id int, d Descriptor, row, col int) *Pedestrian {
	d = d.normalized()
	return &Pedestrian{
		ID:           id,
		Row:          row,
		Col:          col,
		Speed:        d.Speed,
		Coefficients: d.Coefficients,
	}
}
