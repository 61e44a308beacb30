package domain

import "errors"

// ErrNotFound indicates that an identifier could not be resolved to a known
// coin, or that the market data provider has no data for it. Every other
// gateway or oracle failure is a transient upstream error and is wrapped
// with context instead of getting its own variable.
var ErrNotFound = errors.New("coin not found")
