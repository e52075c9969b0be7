package render

import (
	"encoding/json"
	"io"

	"github.com/ZanzyTHEbar/profile-insights/internal/comparison"
	"github.com/ZanzyTHEbar/profile-insights/internal/types"
)

// JSONRenderer writes values as indented JSON. Comparison results are
// wrapped with their chart series.
type JSONRenderer struct {
	Indent string
}

func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{Indent: "  "}
}

type comparisonDocument struct {
	Comparisons types.ComparisonResult `json:"comparisons"`
	Chart       comparison.Chart       `json:"chart"`
}

func (j *JSONRenderer) Render(w io.Writer, v any) error {
	if r, ok := v.(types.ComparisonResult); ok {
		v = comparisonDocument{Comparisons: r, Chart: comparison.BuildChart(r)}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", j.Indent)
	return enc.Encode(v)
}
