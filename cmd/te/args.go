package main

import (
	"fmt"

	"github.com/maurice/tomledit"
)

// tokenizeEdits partitions the positional arguments into edit
// requests. A mode-switch token sets the mode for the arguments that
// follow; in remove mode each argument is a bare key, in every other
// mode arguments come in key/value pairs.
func tokenizeEdits(args []string) ([]tomledit.EditRequest, error) {
	var requests []tomledit.EditRequest
	mode := tomledit.ModeAuto
	pending := tomledit.ModeNone

	for i := 0; i < len(args); i++ {
		if m, ok := tomledit.ParseMode(args[i]); ok {
			mode = m
			pending = m
			continue
		}

		req := tomledit.EditRequest{Switch: pending, Key: args[i]}
		pending = tomledit.ModeNone

		if mode != tomledit.ModeRemove {
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("missing value for key %q", req.Key)
			}
			req.Value = args[i]
			req.HasValue = true
		}
		requests = append(requests, req)
	}
	return requests, nil
}
