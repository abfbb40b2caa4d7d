package lbvh

import "errors"

// ErrTooManyImages is returned by Traverser.Traverse when the supplied
// TranslateOp reports more than MaxImages images. It is an
// InvalidConfiguration failure: detected before any kernel is launched.
var ErrTooManyImages = errors.New("lbvh: translate op reports more than 32 images")

// MaxImages is the width of the per-query active-image bitmask.
const MaxImages = 32
