package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/ocispec/manifest"
	"github.com/wharfd/wharfd/pkg/registry"
	"github.com/wharfd/wharfd/pkg/xlog"
)

// OCI distribution error codes.
//
// See https://github.com/opencontainers/distribution-spec/blob/v1.1.0/spec.md#error-codes
const (
	CodeBlobUnknown         = "BLOB_UNKNOWN"
	CodeBlobUploadInvalid   = "BLOB_UPLOAD_INVALID"
	CodeBlobUploadUnknown   = "BLOB_UPLOAD_UNKNOWN"
	CodeDigestInvalid       = "DIGEST_INVALID"
	CodeManifestBlobUnknown = "MANIFEST_BLOB_UNKNOWN"
	CodeManifestInvalid     = "MANIFEST_INVALID"
	CodeManifestUnknown     = "MANIFEST_UNKNOWN"
	CodeManifestUnverified  = "MANIFEST_UNVERIFIED"
	CodeNameInvalid         = "NAME_INVALID"
	CodeNameUnknown         = "NAME_UNKNOWN"
	CodeSizeInvalid         = "SIZE_INVALID"
	CodeTagInvalid          = "TAG_INVALID"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeDenied              = "DENIED"
	CodeUnsupported         = "UNSUPPORTED"
)

// ociError is one element of an OCI error response body.
type ociError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ociErrorBody struct {
	Errors []ociError `json:"errors"`
}

// statusFor maps an operation error to its HTTP status and OCI error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrBlobPartAlreadyUploaded),
		errors.Is(err, registry.ErrInvalidStartIndex):
		return http.StatusRequestedRangeNotSatisfiable, CodeBlobUploadInvalid
	case errors.Is(err, registry.ErrSessionNotFound):
		return http.StatusNotFound, CodeBlobUploadUnknown
	case errors.Is(err, registry.ErrInvalidSessionID):
		return http.StatusBadRequest, CodeBlobUploadInvalid
	case errors.Is(err, registry.ErrInvalidContentRange):
		return http.StatusBadRequest, CodeBlobUploadInvalid
	case errors.Is(err, registry.ErrInvalidContentLength):
		return http.StatusBadRequest, CodeSizeInvalid
	case errors.Is(err, registry.ErrUnsupportedDigest):
		return http.StatusBadRequest, CodeUnsupported
	case errors.Is(err, registry.ErrInvalidDigest):
		return http.StatusBadRequest, CodeDigestInvalid
	case errors.Is(err, registry.ErrBlobNotFound),
		errors.Is(err, registry.ErrBlobFileNotFound):
		return http.StatusNotFound, CodeBlobUnknown
	case errors.Is(err, registry.ErrBlobManifestStillExists):
		return http.StatusConflict, CodeDenied
	case errors.Is(err, registry.ErrManifestNotFound),
		errors.Is(err, registry.ErrManifestFileNotFound):
		return http.StatusNotFound, CodeManifestUnknown
	case errors.Is(err, registry.ErrFailedToDeleteTag):
		return http.StatusNotFound, CodeManifestUnknown
	case errors.Is(err, manifest.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, CodeUnsupported
	case errors.Is(err, manifest.ErrInvalidSchema):
		return http.StatusBadRequest, CodeManifestInvalid
	case errors.Is(err, errdefs.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, ""
	}
}

// fail writes the error response for an operation error. 4xx responses carry
// an OCI error body; everything else is an opaque 500.
func (a *API) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		xlog.C(c.Request.Context()).Errorf("request failed: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		c.Abort()
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("Www-Authenticate", a.challengeHeader())
	}
	c.JSON(status, ociErrorBody{Errors: []ociError{{Code: code, Message: err.Error()}}})
	c.Abort()
}

func (a *API) challengeHeader() string {
	return fmt.Sprintf("Bearer realm=%q,service=%q,scope=%q", a.cfg.AuthRealm, a.cfg.AuthService, "")
}
