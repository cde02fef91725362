package cli

import (
	"encoding/json"
	"io"
)

// write renders data as indented JSON or through the text callback.
func write(opts *RootOptions, w io.Writer, data any, text func(io.Writer)) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	text(w)
	return nil
}
