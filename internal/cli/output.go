package cli

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/matzehuels/odoomig/pkg/errors"
)

// printJSON writes v to w as JSON with sorted keys and a 4-space indent.
// Struct fields are sorted too: v is decoded into generic maps first.
func printJSON(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(generic)
}
