package engine

import "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

// Warning is one non-fatal failure observed during Convert, per spec.md
// §7's StreamRewriteFailed / ImageTransformFailed / PageFailed /
// RangeUnparsed kinds. Convert never returns these as errors — the document
// it returns is simply missing the inversion that failing piece would have
// applied.
type Warning struct {
	Kind      string
	PageIndex int // 0-based; -1 when not page-scoped (e.g. RangeUnparsed)
	ObjectRef *types.IndirectRef
	Err       error
}

// Report is returned alongside a successfully converted document and
// carries every Warning logged along the way, so library callers can
// inspect partial failures without parsing log output.
type Report struct {
	PagesProcessed int
	Warnings       []Warning
}

func (r *Report) add(kind string, pageIndex int, ref *types.IndirectRef, err error) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, PageIndex: pageIndex, ObjectRef: ref, Err: err})
}
