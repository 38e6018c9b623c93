package report

import (
	"github.com/pbudner/frictionminer/model"
	"github.com/pbudner/frictionminer/pipeline"
)

type TypeCount struct {
	Type  model.AnomalyType
	Count int
}

// Distribution counts anomalies per type, in order of first appearance.
func Distribution(result *pipeline.Result) []TypeCount {
	index := make(map[model.AnomalyType]int)
	out := make([]TypeCount, 0)
	for _, a := range result.Anomalies {
		i, ok := index[a.Type]
		if !ok {
			i = len(out)
			index[a.Type] = i
			out = append(out, TypeCount{Type: a.Type})
		}
		out[i].Count++
	}
	return out
}
