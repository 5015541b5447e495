package tomledit

import (
	"fmt"
)

// EditRequest is one entry in an edit sequence. Switch carries the
// mode-switch token preceding the key, or ModeNone when the request
// rides on the sequence's current mode. HasValue distinguishes a bare
// remove from an element remove; Set/Add/Auto always need a value.
type EditRequest struct {
	Switch   Mode
	Key      string
	Value    string
	HasValue bool
}

// ApplyAll applies requests strictly left to right, threading the
// current mode through the sequence: it starts as ModeAuto and each
// mode switch updates it for the requests that follow. The optional
// prefix segments are prepended to every request's key.
//
// The first failing request aborts the whole batch; the returned error
// identifies it by position and key. Earlier requests in the batch have
// already mutated the document by then, so callers must persist the
// document only after ApplyAll returns nil.
func ApplyAll(doc *Document, prefix []string, requests []EditRequest) error {
	mode := ModeAuto
	for i, req := range requests {
		if req.Switch != ModeNone {
			mode = req.Switch
		}
		segs, err := ParseKeyPath(req.Key)
		if err == nil {
			full := append(append([]string{}, prefix...), segs...)
			err = applySegs(doc, mode, full, req.Value, req.HasValue)
		}
		if err != nil {
			return fmt.Errorf("edit %d (%s %q): %w", i+1, mode, req.Key, err)
		}
	}
	return nil
}
