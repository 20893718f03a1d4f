package chapters

import "errors"

// ErrParse is wrapped by every error returned for malformed chapter metadata.
var ErrParse = errors.New("chapter metadata parse error")
