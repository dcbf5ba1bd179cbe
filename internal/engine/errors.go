package engine

import "errors"

// ErrInvariant reports referential inconsistency between communities and
// the language table. The tick that detects it is rolled back.
var ErrInvariant = errors.New("simulation invariant violated")
