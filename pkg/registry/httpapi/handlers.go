package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/ocispec"
	"github.com/wharfd/wharfd/pkg/registry"
)

func (a *API) ping(c *gin.Context, _ []string) {
	c.JSON(http.StatusOK, gin.H{})
}

func (a *API) createSession(c *gin.Context, matches []string) {
	name := matches[1]
	session, err := a.reg.CreateSession(c.Request.Context(), a.username(c), name)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Location", uploadLocation(name, session.ID))
	c.Header("Range", rangeHeader(session.StartingByteIndex))
	c.Header("Docker-Upload-UUID", session.ID.String())
	c.Status(http.StatusAccepted)
}

func (a *API) patchChunk(c *gin.Context, matches []string) {
	name := matches[1]
	sessionID, err := parseSessionID(matches[2])
	if err != nil {
		a.fail(c, err)
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		a.fail(c, errdefs.NewE(errdefs.ErrSystem, err))
		return
	}
	var expectedStart, declaredLength *int64
	if value := c.GetHeader("Content-Range"); value != "" {
		start, length, err := parseContentRange(value)
		if err != nil {
			a.fail(c, err)
			return
		}
		expectedStart, declaredLength = &start, &length
	}
	next, err := a.reg.AppendChunk(c.Request.Context(), name, sessionID, body, expectedStart, declaredLength)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Location", uploadLocation(name, next.ID))
	c.Header("Range", rangeHeader(next.StartingByteIndex))
	c.Header("Docker-Upload-UUID", next.ID.String())
	c.Status(http.StatusAccepted)
}

func (a *API) getSession(c *gin.Context, matches []string) {
	name := matches[1]
	sessionID, err := parseSessionID(matches[2])
	if err != nil {
		a.fail(c, err)
		return
	}
	session, err := a.reg.GetSession(c.Request.Context(), name, sessionID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Location", uploadLocation(name, session.ID))
	c.Header("Range", rangeHeader(session.StartingByteIndex))
	c.Header("Docker-Upload-UUID", session.ID.String())
	c.Status(http.StatusNoContent)
}

func (a *API) finalizeUpload(c *gin.Context, matches []string) {
	name := matches[1]
	sessionID, err := parseSessionID(matches[2])
	if err != nil {
		a.fail(c, err)
		return
	}
	expectedDigest := c.Query("digest")
	if expectedDigest == "" {
		a.fail(c, errdefs.Newf(registry.ErrInvalidDigest, "missing digest query parameter"))
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		a.fail(c, errdefs.NewE(errdefs.ErrSystem, err))
		return
	}
	blob, err := a.reg.FinalizeUpload(c.Request.Context(), name, sessionID, expectedDigest, body)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Location", blob.ID.String())
	c.Header("Docker-Content-Digest", blob.Digest.String())
	c.Status(http.StatusCreated)
}

func (a *API) getBlob(c *gin.Context, matches []string) {
	blob, err := a.reg.GetBlob(c.Request.Context(), matches[1], matches[2])
	if err != nil {
		a.fail(c, err)
		return
	}
	defer blob.Body.Close()
	c.DataFromReader(http.StatusOK, blob.Size, ocispec.MediaTypeBlob, blob.Body, map[string]string{
		"Docker-Content-Digest": blob.Digest.String(),
	})
}

func (a *API) deleteBlob(c *gin.Context, matches []string) {
	if err := a.reg.DeleteBlob(c.Request.Context(), matches[1], matches[2]); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (a *API) putManifest(c *gin.Context, matches []string) {
	name, reference := matches[1], matches[2]
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		a.fail(c, errdefs.NewE(errdefs.ErrSystem, err))
		return
	}
	result, err := a.reg.PutManifest(c.Request.Context(), name, reference, c.ContentType(), body)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/v2/%s/manifests/%s", name, result.Digest))
	c.Header("Docker-Content-Digest", result.Digest.String())
	if result.Subject != nil {
		c.Header("OCI-Subject", result.Subject.String())
	}
	c.Status(http.StatusCreated)
}

func (a *API) getManifest(c *gin.Context, matches []string) {
	m, err := a.reg.GetManifest(c.Request.Context(), matches[1], matches[2])
	if err != nil {
		a.fail(c, err)
		return
	}
	defer m.Body.Close()
	c.DataFromReader(http.StatusOK, m.Size, m.ContentType, m.Body, map[string]string{
		"Docker-Content-Digest": m.Digest.String(),
	})
}

func (a *API) headManifest(c *gin.Context, matches []string) {
	m, err := a.reg.GetManifest(c.Request.Context(), matches[1], matches[2])
	if err != nil {
		a.fail(c, err)
		return
	}
	_ = m.Body.Close()
	c.Header("Content-Type", m.ContentType)
	c.Header("Content-Length", cast.ToString(m.Size))
	c.Header("Docker-Content-Digest", m.Digest.String())
	c.Status(http.StatusOK)
}

func (a *API) deleteManifest(c *gin.Context, matches []string) {
	if err := a.reg.DeleteManifest(c.Request.Context(), matches[1], matches[2]); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (a *API) listTags(c *gin.Context, matches []string) {
	list, err := a.reg.ListTags(c.Request.Context(), matches[1], cast.ToInt(c.Query("n")), c.Query("last"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func uploadLocation(name string, sessionID uuid.UUID) string {
	return fmt.Sprintf("/v2/%s/blobs/uploads/%s", name, sessionID)
}

// rangeHeader builds the inclusive Range acknowledgement for n received
// bytes. A fresh session with nothing received reports 0-0.
func rangeHeader(n int64) string {
	if n <= 0 {
		return "0-0"
	}
	return fmt.Sprintf("0-%d", n-1)
}

func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errdefs.Newf(registry.ErrInvalidSessionID, "session id %q is not a UUID", raw)
	}
	return id, nil
}

var contentRangePattern = regexp.MustCompile(`^([0-9]+)-([0-9]+)$`)

// parseContentRange parses an inclusive "<start>-<end>" Content-Range value
// into the chunk's start offset and length.
func parseContentRange(value string) (start, length int64, err error) {
	matches := contentRangePattern.FindStringSubmatch(value)
	if matches == nil {
		return 0, 0, errdefs.Newf(registry.ErrInvalidContentRange, "content range %q is not <start>-<end>", value)
	}
	start, err = cast.ToInt64E(matches[1])
	if err != nil {
		return 0, 0, errdefs.Newf(registry.ErrInvalidContentRange, "content range %q: %v", value, err)
	}
	end, err := cast.ToInt64E(matches[2])
	if err != nil {
		return 0, 0, errdefs.Newf(registry.ErrInvalidContentRange, "content range %q: %v", value, err)
	}
	if end < start {
		return 0, 0, errdefs.Newf(registry.ErrInvalidContentRange, "content range %q ends before it starts", value)
	}
	return start, end - start + 1, nil
}
