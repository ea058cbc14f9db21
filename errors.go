package typeahead

import "github.com/cockroachdb/errors"

// ErrLookupFailed marks errors returned by a session's SearchFunc. The
// original cause stays reachable through errors.Is and errors.As.
var ErrLookupFailed = errors.New("typeahead: lookup failed")

func lookupFailed(err error, term string) error {
	return errors.Mark(errors.Wrapf(err, "lookup %q", term), ErrLookupFailed)
}
