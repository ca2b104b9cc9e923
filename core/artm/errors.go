package artm

import "errors"

// ErrConfig marks a configuration inconsistency: a hard error for the
// current run, never retried.
var ErrConfig = errors.New("inconsistent configuration")

// ErrUnknownModel is returned when a model name resolves to neither a
// configuration nor a physical topic model.
var ErrUnknownModel = errors.New("unknown model")
