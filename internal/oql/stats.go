package oql

// GeneAlteration is the altered/sequenced tally of one OQL line.
type GeneAlteration struct {
	Gene           string  `json:"gene"`
	OQLLine        string  `json:"oqlLine"`
	Altered        int     `json:"altered"`
	Sequenced      int     `json:"sequenced"`
	PercentAltered float64 `json:"percentAltered"`
}

// GenerateGeneAlterationData tallies each OQL line in sample mode. Without
// lines or sequencing information the result is empty.
func GenerateGeneAlterationData(lines []QueriedCaseData, sequencedSampleKeysByGene map[string][]string) []GeneAlteration {
	if len(lines) == 0 || len(sequencedSampleKeysByGene) == 0 {
		return []GeneAlteration{}
	}

	out := make([]GeneAlteration, 0, len(lines))
	for _, data := range lines {
		altered := 0
		for _, records := range data.Cases.Samples {
			if len(records) > 0 {
				altered++
			}
		}
		sequenced := countUnique(sequencedSampleKeysByGene[data.OQL.Gene])

		var percent float64
		if sequenced > 0 {
			percent = 100 * float64(altered) / float64(sequenced)
		}
		out = append(out, GeneAlteration{
			Gene:           data.OQL.Gene,
			OQLLine:        data.OQL.OQLLine,
			Altered:        altered,
			Sequenced:      sequenced,
			PercentAltered: percent,
		})
	}
	return out
}

// GeneAlterationsByGene keys tallies by gene; later lines win.
func GeneAlterationsByGene(list []GeneAlteration) map[string]GeneAlteration {
	byGene := make(map[string]GeneAlteration, len(list))
	for _, g := range list {
		byGene[g.Gene] = g
	}
	return byGene
}

func countUnique(keys []string) int {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	return len(seen)
}
