// Package engine is the orchestrator (spec.md §4.9): load a document, drive
// the resource walker over each selected page, optionally drop non-selected
// pages, and serialize the result. This is the package a library caller
// imports; the cmd package is a thin cobra wrapper around it.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/pdfknight/pdfinvert/engine/errors"
	"github.com/pdfknight/pdfinvert/engine/pageselect"
	"github.com/pdfknight/pdfinvert/engine/prelude"
	"github.com/pdfknight/pdfinvert/engine/raster"
	"github.com/pdfknight/pdfinvert/engine/walk"
)

// Convert implements spec.md §4.9's five steps and returns the rewritten
// PDF bytes together with a Report of non-fatal warnings. ctx is checked for
// cancellation at page boundaries, per spec.md §5's cooperative cancellation
// model — a cancelled context aborts cleanly, discarding the partial
// document without writing output.
func Convert(ctx context.Context, src []byte, req ProcessRequest, opts ...Option) ([]byte, Report, error) {
	s := defaultSettings()
	for _, o := range opts {
		o(s)
	}
	report := Report{}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadContext(bytes.NewReader(src), conf)
	if err != nil {
		return nil, report, &pdferrors.InvalidDocumentError{Cause: err}
	}
	if pctx.Encrypt != nil {
		return nil, report, &pdferrors.EncryptedError{Cause: fmt.Errorf("document requires a password")}
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, report, &pdferrors.InvalidDocumentError{Cause: err}
	}

	sel := toSelector(req.Range)
	indices := pageselect.Resolve(pctx.PageCount, sel, req.CustomRange)
	if req.Range == RangeCustom && len(indices) == 0 {
		s.logger.Warnw("custom range unparsed or empty, widening to all pages", "customRange", req.CustomRange)
		report.add("RangeUnparsed", -1, nil, &pdferrors.RangeUnparsedError{Raw: req.CustomRange})
		indices = pageselect.Resolve(pctx.PageCount, pageselect.All, "")
	}

	rasterOpts := raster.Options{
		Mode:           req.Mode,
		Palette:        s.palette,
		CompressImages: req.CompressImages,
		OutputDPIHint:  normalizeDPI(req.OutputDPIHint),
	}

	onWarning := func(kind string, pageIndex int, ref *types.IndirectRef, err error) {
		s.logger.Warnw(kind, "page", pageIndex, "err", err)
		report.add(kind, pageIndex, ref, wrapWarning(kind, pageIndex, err))
	}
	walker := walk.NewWalker(pctx, req.Mode, s.palette, rasterOpts, onWarning)

	for _, idx := range indices {
		select {
		case <-ctx.Done():
			return nil, report, ctx.Err()
		default:
		}

		pageNum := idx + 1
		if err := processPage(walker, pctx, pageNum, idx); err != nil {
			onWarning("PageFailed", idx, nil, err)
			continue
		}
		report.PagesProcessed++
	}

	var out bytes.Buffer
	if err := api.WriteContext(pctx, &out); err != nil {
		return nil, report, &pdferrors.SerializationError{Cause: err}
	}

	if req.Range == RangeAll || (req.Range == RangeCustom && len(indices) == pctx.PageCount) {
		return out.Bytes(), report, nil
	}

	trimmed, err := trimToPages(out.Bytes(), indices, conf)
	if err != nil {
		return nil, report, &pdferrors.SerializationError{Cause: err}
	}
	return trimmed, report, nil
}

func processPage(w *walk.Walker, pctx *model.Context, pageNum, pageIndex int) error {
	pageDict, _, inhPAttrs, err := pctx.PageDict(pageNum, false)
	if err != nil {
		return fmt.Errorf("page dict: %w", err)
	}

	resources := resolveResources(pctx, pageDict, inhPAttrs)
	box := mediaBoxOf(pageDict, inhPAttrs)

	return w.WalkPage(pageIndex, pageDict, resources, box)
}

func resolveResources(pctx *model.Context, pageDict types.Dict, inhPAttrs *model.InheritedPageAttrs) types.Dict {
	if obj, found := pageDict.Find("Resources"); found {
		if d, ok := resolveDict(pctx, obj); ok {
			return d
		}
	}
	if inhPAttrs != nil && inhPAttrs.Resources != nil {
		return inhPAttrs.Resources
	}
	return types.Dict{}
}

func resolveDict(pctx *model.Context, obj types.Object) (types.Dict, bool) {
	if ref, ok := obj.(types.IndirectRef); ok {
		deref, err := pctx.Dereference(ref)
		if err != nil {
			return nil, false
		}
		obj = deref
	}
	d, ok := obj.(types.Dict)
	return d, ok
}

// mediaBoxOf matches the teacher's addPageBackground fallback chain: page
// dict, then inherited attributes, then US Letter as a last resort.
func mediaBoxOf(pageDict types.Dict, inhPAttrs *model.InheritedPageAttrs) prelude.Box {
	if mb, found := pageDict.Find("MediaBox"); found {
		if arr, ok := mb.(types.Array); ok {
			if r := types.RectForArray(arr); r != nil {
				return prelude.Box{X: r.LL.X, Y: r.LL.Y, W: r.Width(), H: r.Height()}
			}
		}
	}
	if inhPAttrs != nil && inhPAttrs.MediaBox != nil {
		r := inhPAttrs.MediaBox
		return prelude.Box{X: r.LL.X, Y: r.LL.Y, W: r.Width(), H: r.Height()}
	}
	return prelude.Box{X: 0, Y: 0, W: 612, H: 792}
}

func toSelector(r RangeKind) pageselect.Selector {
	switch r {
	case RangeOdd:
		return pageselect.Odd
	case RangeEven:
		return pageselect.Even
	case RangeCustom:
		return pageselect.Custom
	default:
		return pageselect.All
	}
}

func normalizeDPI(hint int) int {
	if hint == 150 || hint == 300 || hint == 600 {
		return hint
	}
	if hint == 0 {
		return 300
	}
	return hint // raster.jpegQuality/nearestSupportedDPI snaps this at use time
}

func wrapWarning(kind string, pageIndex int, err error) error {
	switch kind {
	case "StreamRewriteFailed":
		return &pdferrors.StreamRewriteError{PageIndex: pageIndex, Cause: err}
	case "ImageTransformFailed":
		return &pdferrors.ImageTransformError{PageIndex: pageIndex, Cause: err}
	default:
		return &pdferrors.PageError{PageIndex: pageIndex, Cause: err}
	}
}

// trimToPages re-reads the rewritten document and drops every page not in
// indices, preserving their relative order, by delegating to pdfcpu's own
// page-selection trim — spec.md §4.9 step 4's "remove all non-selected
// pages, iterating from highest to lowest to preserve indices during
// removal" is exactly what pdfcpu's selection-based Trim does internally.
func trimToPages(doc []byte, indices []int, conf *model.Configuration) ([]byte, error) {
	selection := make([]string, len(indices))
	for i, idx := range indices {
		selection[i] = strconv.Itoa(idx + 1)
	}
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(doc), &out, []string{strings.Join(selection, ",")}, conf); err != nil {
		return nil, fmt.Errorf("trim pages: %w", err)
	}
	return out.Bytes(), nil
}
