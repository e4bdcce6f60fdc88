package raster

import (
	"bytes"
	"compress/zlib"
	"sync"
)

// zlibWriterPool amortizes the internal hash-table allocation zlib writers
// carry, the same pooling trick alefaraci-GoSNare/pdf.go uses for its own
// per-layer PNG compression.
var zlibWriterPool = sync.Pool{
	New: func() any {
		w, _ := zlib.NewWriterLevel(&bytes.Buffer{}, zlib.BestSpeed)
		return w
	},
}

// deflate zlib-compresses raw image samples for the PDF FlateDecode filter,
// which wraps its payload in a zlib stream (RFC 1950), not raw DEFLATE.
func deflate(samples []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlibWriterPool.Get().(*zlib.Writer)
	w.Reset(&buf)
	defer zlibWriterPool.Put(w)

	if _, err := w.Write(samples); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
