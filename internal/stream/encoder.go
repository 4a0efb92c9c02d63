package stream

import (
	"encoding/json"
	"io"

	"housekeeper/internal/model"
)

// EncodeFrame renders a frame as indented JSON for --text --json.
func EncodeFrame(w io.Writer, f model.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}
