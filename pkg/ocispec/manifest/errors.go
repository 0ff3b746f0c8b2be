package manifest

import (
	"github.com/wharfd/wharfd/pkg/errdefs"
)

var (
	// ErrUnsupportedType signals a Content-Type outside the accepted
	// manifest media type sets.
	ErrUnsupportedType = errdefs.Newf(errdefs.ErrUnsupported, "unsupported manifest type")

	// ErrInvalidSchema signals a manifest body that fails validation.
	ErrInvalidSchema = errdefs.Newf(errdefs.ErrInvalidParameter, "invalid manifest schema")
)
