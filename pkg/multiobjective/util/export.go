package util

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/algorithms"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/doorplacement"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/framework"
)

// Solution is one exported door configuration of a Pareto front.
type Solution struct {
	SolutionID int    `json:"solution_id"`
	Gene       []bool `json:"gene"`
	// DoorPositions lists every open door cell as [col, row].
	DoorPositions        [][2]int         `json:"door_positions"`
	DoorPositionsGrouped []grid.DoorSpec  `json:"door_positions_grouped"`
	Objectives           []float64        `json:"objectives"`
	NumDoors             int              `json:"num_doors"`
	Iterations           int              `json:"iterations"`
	Distance             float64          `json:"distance"`
	Generation           int              `json:"generation"`
	Rank                 int              `json:"rank"`
	// CrowdingDistance is null for boundary solutions.
	CrowdingDistance *float64 `json:"crowding_distance"`
	Algorithm        string   `json:"algorithm"`
}

// Decoder maps a gene to the doors it opens.
type Decoder interface {
	Decode(gene doorplacement.Gene) []grid.DoorSpec
}

// ToSolutions converts a front into its export form, ordered by objectives.
func ToSolutions(front []*framework.Chromosome[doorplacement.Gene], decoder Decoder) []Solution {
	sorted := append([]*framework.Chromosome[doorplacement.Gene](nil), front...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Objectives, sorted[j].Objectives
		for k := range min(len(a), len(b)) {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})

	solutions := make([]Solution, len(sorted))
	for i, c := range sorted {
		doors := decoder.Decode(c.Gene)
		var crowding *float64
		if !math.IsInf(c.Distance, 0) && !math.IsNaN(c.Distance) {
			crowding = lo.ToPtr(c.Distance)
		}

		solutions[i] = Solution{
			SolutionID:           i,
			Gene:                 append([]bool(nil), c.Gene...),
			DoorPositions:        expand(doors),
			DoorPositionsGrouped: doors,
			Objectives:           append([]float64(nil), c.Objectives...),
			NumDoors:             c.Gene.Count(),
			Iterations:           int(math.Round(c.Auxiliary[doorplacement.AuxIterations])),
			Distance:             c.Auxiliary[doorplacement.AuxDistance],
			Generation:           c.Generation,
			Rank:                 c.Rank,
			CrowdingDistance:     crowding,
			Algorithm:            fmt.Sprintf("%s-Cached-%dobj", algorithms.Name, len(c.Objectives)),
		}
	}
	return solutions
}

func expand(doors []grid.DoorSpec) [][2]int {
	out := [][2]int{}
	for _, d := range doors {
		for _, p := range d.Cells() {
			out = append(out, [2]int{p.Col, p.Row})
		}
	}
	return out
}

// WriteJSON writes v as indented JSON to path. The file is replaced atomically:
// readers see either the previous content or the complete new one.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
