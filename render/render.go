// Package render defines the interface for writing unified transcripts to an
// output stream.
package render

import (
	"io"

	"github.com/sonnes/unitrans/core"
)

// Renderer writes a transcript to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, t *core.Transcript) error
}
