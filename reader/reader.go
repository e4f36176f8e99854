// Package reader defines the contract every format decoder implements and the
// shared per-conversion state decoders feed events into.
package reader

import (
	"time"

	"github.com/sonnes/unitrans/core"
	"github.com/sonnes/unitrans/pricing"
)

// Options are supplied by the caller of a decoder.
type Options struct {
	// Timestamp overrides the transcript timestamp when non-zero.
	Timestamp time.Time
	// Git is known repository context. Its fields win over what the session
	// log records; missing fields are filled from the log.
	Git *core.GitContext
	// Pricing is the resolved table used for cost estimation. An empty table
	// yields zero cost.
	Pricing pricing.Table
	// ClientVersion labels the converting client.
	ClientVersion string
}

// Result is a successful conversion.
type Result struct {
	Transcript *core.Transcript
	Blobs      core.BlobMap
}

// Decoder converts one raw session into a unified transcript. Decode returns
// (nil, nil) when the input holds no convertible content. Malformed records
// are skipped; an error means the payload could not be framed at all or the
// assembled transcript failed validation.
type Decoder interface {
	Decode(data []byte, opts Options) (*Result, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte, opts Options) (*Result, error)

// Decode calls f.
func (f DecoderFunc) Decode(data []byte, opts Options) (*Result, error) {
	return f(data, opts)
}
