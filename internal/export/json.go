package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/edisim/internal/storage"
)

type Data struct {
	Run    *storage.RunMetadata `json:"run"`
	Times  []float64            `json:"times"`
	States [][]float64          `json:"states"`
}

// JSON writes a stored run's metadata and rows as one indented document.
func JSON(w io.Writer, meta *storage.RunMetadata, states [][]float64, times []float64) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Data{Run: meta, Times: times, States: states})
}
