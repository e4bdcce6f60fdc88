// Package walk implements the resource walker (spec.md §4.6): for a page (or
// recursively a form/appearance stream), it rewrites the owner's own content
// stream, then visits image and form XObjects in its Resources, then visits
// the page's annotation appearance streams — deduplicating every shared
// object by its persistent PDF identity, never by local resource name.
//
// Per spec.md §9's resolved open question, images are deduplicated with a
// visited set scoped to a single page's traversal; forms and appearance
// streams use a visited set scoped to the whole document, since an
// involutive rewrite (Full mode) would silently un-invert a form shared by
// two pages if it were rewritten twice.
package walk

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdfknight/pdfinvert/engine/colormath"
	"github.com/pdfknight/pdfinvert/engine/prelude"
	"github.com/pdfknight/pdfinvert/engine/raster"
	"github.com/pdfknight/pdfinvert/engine/rewrite"
	"github.com/pdfknight/pdfinvert/engine/streamcodec"
)

// WarningFunc receives a non-fatal failure observed during the walk —
// spec.md §7's StreamRewriteFailed / ImageTransformFailed / PageFailed
// taxonomy. The
// caller (engine.Convert) is responsible for logging it and recording it
// on the Report.
type WarningFunc func(kind string, pageIndex int, objRef *types.IndirectRef, err error)

// Walker holds the state that is threaded through one document's traversal.
type Walker struct {
	Ctx           *model.Context
	Mode          colormath.Mode
	Palette       colormath.Palette
	SkipImages    bool // true under InversionMode = TextOnly, spec.md §4.7
	RasterOptions raster.Options
	OnWarning     WarningFunc

	// docVisited holds forms and annotation appearance streams already
	// rewritten anywhere in the document (spec.md §9).
	docVisited map[types.IndirectRef]struct{}
}

// NewWalker constructs a Walker with a fresh document-scoped visited set.
func NewWalker(ctx *model.Context, mode colormath.Mode, palette colormath.Palette, rasterOpts raster.Options, onWarning WarningFunc) *Walker {
	return &Walker{
		Ctx:           ctx,
		Mode:          mode,
		Palette:       palette,
		SkipImages:    mode == colormath.TextOnly,
		RasterOptions: rasterOpts,
		OnWarning:     onWarning,
		docVisited:    map[types.IndirectRef]struct{}{},
	}
}

// WalkPage performs the four-pass traversal of spec.md §4.6 for a single
// page: rewrite own content stream (with the background prelude prepended),
// visit image XObjects (page-scoped dedup), visit form XObjects (document-
// scoped dedup, recursing), then visit annotation appearance streams
// (document-scoped dedup, recursing).
func (w *Walker) WalkPage(pageIndex int, pageDict types.Dict, resources types.Dict, box prelude.Box) error {
	pageVisitedImages := map[types.IndirectRef]struct{}{}

	if err := w.rewritePageContent(pageIndex, pageDict, box); err != nil {
		w.OnWarning("StreamRewriteFailed", pageIndex, nil, err)
	}

	w.walkResources(pageIndex, resources, pageVisitedImages)

	if err := w.walkAnnotations(pageIndex, pageDict); err != nil {
		w.OnWarning("PageFailed", pageIndex, nil, err)
	}

	return nil
}

// walkResources is steps 2 and 3 of spec.md §4.6, shared by pages, forms,
// and appearance streams: visit image XObjects (using imgVisited, whose
// scope the caller controls) then form XObjects (using w.docVisited),
// recursing into each form's own Resources.
func (w *Walker) walkResources(pageIndex int, resources types.Dict, imgVisited map[types.IndirectRef]struct{}) {
	xObjects := w.dereferenceDict(resources, "XObject")
	if xObjects == nil {
		return
	}

	for _, obj := range xObjects {
		ref, ok := obj.(types.IndirectRef)
		if !ok {
			continue // direct (non-indirect) XObjects have no stable identity to dedup on
		}
		sd, err := w.streamAt(ref)
		if err != nil {
			w.OnWarning("ImageTransformFailed", pageIndex, &ref, err)
			continue
		}
		subtype := name(sd.Dict, "Subtype")
		switch subtype {
		case "Image":
			w.visitImage(pageIndex, ref, sd, imgVisited)
		case "Form":
			w.visitForm(pageIndex, ref, sd)
		}
	}
}

func (w *Walker) visitImage(pageIndex int, ref types.IndirectRef, sd *types.StreamDict, imgVisited map[types.IndirectRef]struct{}) {
	if _, done := imgVisited[ref]; done {
		return
	}
	imgVisited[ref] = struct{}{}

	if w.SkipImages {
		return
	}
	if raster.IsStencil(sd) {
		return // invariant 5/7: stencil masks are never pixel-transformed
	}

	if _, err := raster.Transform(sd, w.RasterOptions); err != nil {
		w.OnWarning("ImageTransformFailed", pageIndex, &ref, err)
		return
	}
	w.putStream(ref, sd)
}

func (w *Walker) visitForm(pageIndex int, ref types.IndirectRef, sd *types.StreamDict) {
	if _, done := w.docVisited[ref]; done {
		return
	}
	w.docVisited[ref] = struct{}{}

	// invariant 4: the form's own content stream is rewritten before its
	// nested XObjects are visited. Forms get no background prelude — only
	// pages do.
	if err := w.rewriteStream(sd); err != nil {
		w.OnWarning("StreamRewriteFailed", pageIndex, &ref, err)
	} else {
		w.putStream(ref, sd)
	}

	formResources := w.dereferenceDict(sd.Dict, "Resources")
	if formResources != nil {
		formImgVisited := map[types.IndirectRef]struct{}{}
		w.walkResources(pageIndex, formResources, formImgVisited)
	}
}

// walkAnnotations is step 4 of spec.md §4.6: for each annotation's
// appearance dictionary, for each of {normal=N, rollover=R, down=D}, reach
// either a single appearance stream or a state sub-mapping, and rewrite +
// recurse into it exactly like a form.
func (w *Walker) walkAnnotations(pageIndex int, pageDict types.Dict) error {
	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil
	}
	annots, ok := w.resolveArray(annotsObj)
	if !ok {
		return nil
	}

	for _, a := range annots {
		annotRef, ok := a.(types.IndirectRef)
		if !ok {
			continue
		}
		annotDictObj, err := w.Ctx.Dereference(annotRef)
		if err != nil {
			continue
		}
		annotDict, ok := annotDictObj.(types.Dict)
		if !ok {
			continue
		}
		apObj, found := annotDict.Find("AP")
		if !found {
			continue
		}
		apDict, ok := w.resolveDict(apObj)
		if !ok {
			continue
		}
		for _, key := range []string{"N", "R", "D"} {
			entry, found := apDict.Find(key)
			if !found {
				continue
			}
			w.walkAppearanceEntry(pageIndex, entry)
		}
	}
	return nil
}

// walkAppearanceEntry handles the "single stream or state sub-mapping"
// shape spec.md §3 describes for each of {N,R,D}.
func (w *Walker) walkAppearanceEntry(pageIndex int, entry types.Object) {
	if ref, ok := entry.(types.IndirectRef); ok {
		if sd, err := w.streamAt(ref); err == nil {
			w.visitForm(pageIndex, ref, sd) // appearance streams recurse exactly like forms
			return
		}
	}
	if stateDict, ok := w.resolveDict(entry); ok {
		for _, v := range stateDict {
			if ref, ok := v.(types.IndirectRef); ok {
				if sd, err := w.streamAt(ref); err == nil {
					w.visitForm(pageIndex, ref, sd)
				}
			}
		}
	}
}

// rewritePageContent applies the background prelude (spec.md §4.4) ahead of
// the rewritten original tokens, satisfying invariant 6.
func (w *Walker) rewritePageContent(pageIndex int, pageDict types.Dict, box prelude.Box) error {
	contentsEntry, found := pageDict.Find("Contents")
	if !found {
		return nil
	}

	switch contents := contentsEntry.(type) {
	case types.IndirectRef:
		sd, err := w.streamAt(contents)
		if err != nil {
			return err
		}
		if err := w.rewriteStreamWithPrelude(sd, box); err != nil {
			return err
		}
		w.putStream(contents, sd)
		return nil
	case types.Array:
		for _, item := range contents {
			ref, ok := item.(types.IndirectRef)
			if !ok {
				continue
			}
			sd, err := w.streamAt(ref)
			if err != nil {
				w.OnWarning("StreamRewriteFailed", pageIndex, &ref, err)
				continue
			}
			if err := w.rewriteStreamWithPrelude(sd, box); err != nil {
				w.OnWarning("StreamRewriteFailed", pageIndex, &ref, err)
				continue
			}
			w.putStream(ref, sd)
			box = prelude.Box{} // only the first physical stream gets the prelude
		}
		return nil
	default:
		return nil
	}
}

func (w *Walker) rewriteStreamWithPrelude(sd *types.StreamDict, box prelude.Box) error {
	toks, err := streamcodec.Decode(sd)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}
	rewritten := rewrite.Rewrite(toks, w.Mode, w.Palette)
	if (box != prelude.Box{}) {
		rewritten = append(prelude.Build(w.Mode, w.Palette, box), rewritten...)
	}
	return streamcodec.Encode(sd, rewritten)
}

func (w *Walker) rewriteStream(sd *types.StreamDict) error {
	toks, err := streamcodec.Decode(sd)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}
	rewritten := rewrite.Rewrite(toks, w.Mode, w.Palette)
	return streamcodec.Encode(sd, rewritten)
}

// --- pdfcpu object-model plumbing -----------------------------------------

func (w *Walker) streamAt(ref types.IndirectRef) (*types.StreamDict, error) {
	obj, err := w.Ctx.Dereference(ref)
	if err != nil {
		return nil, err
	}
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("object %s is not a stream", ref)
	}
	return &sd, nil
}

func (w *Walker) putStream(ref types.IndirectRef, sd *types.StreamDict) {
	entry, found := w.Ctx.FindTableEntryForIndRef(&ref)
	if !found {
		return
	}
	entry.Object = *sd
}

func (w *Walker) dereferenceDict(d types.Dict, key string) types.Dict {
	obj, found := d.Find(key)
	if !found {
		return nil
	}
	resolved, ok := w.resolveDict(obj)
	if !ok {
		return nil
	}
	return resolved
}

func (w *Walker) resolveDict(obj types.Object) (types.Dict, bool) {
	if ref, ok := obj.(types.IndirectRef); ok {
		deref, err := w.Ctx.Dereference(ref)
		if err != nil {
			return nil, false
		}
		obj = deref
	}
	d, ok := obj.(types.Dict)
	return d, ok
}

func (w *Walker) resolveArray(obj types.Object) (types.Array, bool) {
	if ref, ok := obj.(types.IndirectRef); ok {
		deref, err := w.Ctx.Dereference(ref)
		if err != nil {
			return nil, false
		}
		obj = deref
	}
	a, ok := obj.(types.Array)
	return a, ok
}

func name(d types.Dict, key string) string {
	obj, found := d.Find(key)
	if !found {
		return ""
	}
	n, ok := obj.(types.Name)
	if !ok {
		return ""
	}
	return string(n)
}
