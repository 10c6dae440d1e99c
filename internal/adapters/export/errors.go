package export

import "errors"

// ErrUnsupportedFormat is returned for export formats other than csv, xlsx
// and json.
var ErrUnsupportedFormat = errors.New("unsupported export format")
