// Package continuity chains a sequence of fallible steps so that, once
// one fails, every step after it is skipped. commitFit uses it to run
// fit, optional hash-function pruning, and meta annotation as one
// pipeline: the first failure stops the rest and is reported as a single
// error.
package continuity

import "strings"

// IfThen runs a sequence of named steps against a single shared failure
// state: the first step to fail "breaks" the chain, and every later
// Thenf/Then call becomes a no-op that just returns the chain unchanged.
// It is not safe for concurrent use; build a fresh one per pipeline run.
type IfThen struct {
	broken brokenErrors
}

// brokenErrors is the (possibly multi-valued) failure recorded for the
// step that broke the chain. Then can record more than one error at
// once; Thenf always records exactly one.
type brokenErrors []error

func (e brokenErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "multiple errors: " + strings.Join(msgs, ", ")
}

// New starts an empty, unbroken chain.
func New() *IfThen {
	return new(IfThen)
}

// Thenf runs f if the chain hasn't already broken, and breaks it if f
// returns an error. name identifies the step for callers building their
// own diagnostics around the chain; it plays no role in Err's output.
func (it *IfThen) Thenf(name string, f func() error) *IfThen {
	if it.broken != nil {
		return it
	}
	if err := f(); err != nil {
		it.broken = append(it.broken, err)
	}
	return it
}

// Then is Thenf for errors already computed rather than a deferred call:
// if the chain hasn't broken yet, every non-nil error in errs breaks it
// (all of them are recorded, not just the first).
func (it *IfThen) Then(name string, errs ...error) *IfThen {
	if it.broken != nil {
		return it
	}
	for _, err := range errs {
		if err != nil {
			it.broken = append(it.broken, err)
		}
	}
	return it
}

// Err returns the chain's recorded failure (nil if nothing has broken
// it), joining multiple errors from a single Then call into one message.
func (it *IfThen) Err() error {
	if len(it.broken) == 0 {
		return nil
	}
	return it.broken
}
