package httpapi

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// routeDescriptor binds one distribution endpoint to its handler. Patterns
// are anchored regexes over the full request path because repository names
// contain slashes, which a tree router cannot express; the table is tried in
// order from a catch-all.
type routeDescriptor struct {
	// ID is the endpoint identifier from the distribution spec.
	ID string
	// Method is the HTTP method the route answers.
	Method string
	// Pattern matches the full request path. Capture groups carry the
	// repository name and the reference.
	Pattern *regexp.Regexp
	// Handler serves a matched request; matches holds the capture groups.
	Handler func(a *API, c *gin.Context, matches []string)
}

var v2Routes = []routeDescriptor{
	{
		ID:      "end-1",
		Method:  http.MethodGet,
		Pattern: regexp.MustCompile(`^/v2/?$`),
		Handler: (*API).ping,
	},
	{
		ID:      "end-4a",
		Method:  http.MethodPost,
		Pattern: regexp.MustCompile(`^/v2/(.+)/blobs/uploads/?$`),
		Handler: (*API).createSession,
	},
	{
		ID:      "end-5",
		Method:  http.MethodPatch,
		Pattern: regexp.MustCompile(`^/v2/(.+)/blobs/uploads/([^/]+)$`),
		Handler: (*API).patchChunk,
	},
	{
		ID:      "end-13",
		Method:  http.MethodGet,
		Pattern: regexp.MustCompile(`^/v2/(.+)/blobs/uploads/([^/]+)$`),
		Handler: (*API).getSession,
	},
	{
		ID:      "end-6",
		Method:  http.MethodPut,
		Pattern: regexp.MustCompile(`^/v2/(.+)/blobs/uploads/([^/]+)$`),
		Handler: (*API).finalizeUpload,
	},
	{
		ID:      "end-2",
		Method:  http.MethodGet,
		Pattern: regexp.MustCompile(`^/v2/(.+)/blobs/([^/]+)$`),
		Handler: (*API).getBlob,
	},
	{
		ID:      "end-10",
		Method:  http.MethodDelete,
		Pattern: regexp.MustCompile(`^/v2/(.+)/blobs/([^/]+)$`),
		Handler: (*API).deleteBlob,
	},
	{
		ID:      "end-7",
		Method:  http.MethodPut,
		Pattern: regexp.MustCompile(`^/v2/(.+)/manifests/([^/]+)$`),
		Handler: (*API).putManifest,
	},
	{
		ID:      "end-3",
		Method:  http.MethodGet,
		Pattern: regexp.MustCompile(`^/v2/(.+)/manifests/([^/]+)$`),
		Handler: (*API).getManifest,
	},
	{
		ID:      "end-3",
		Method:  http.MethodHead,
		Pattern: regexp.MustCompile(`^/v2/(.+)/manifests/([^/]+)$`),
		Handler: (*API).headManifest,
	},
	{
		ID:      "end-9",
		Method:  http.MethodDelete,
		Pattern: regexp.MustCompile(`^/v2/(.+)/manifests/([^/]+)$`),
		Handler: (*API).deleteManifest,
	},
	{
		ID:      "end-8",
		Method:  http.MethodGet,
		Pattern: regexp.MustCompile(`^/v2/(.+)/tags/list$`),
		Handler: (*API).listTags,
	},
}

// dispatch routes a /v2 request through the descriptor table. The uploads
// patterns come before the blobs ones, which would otherwise swallow the
// uploads prefix into the repository name.
func (a *API) dispatch(c *gin.Context) {
	path := c.Request.URL.Path
	for _, route := range v2Routes {
		if route.Method != c.Request.Method {
			continue
		}
		matches := route.Pattern.FindStringSubmatch(path)
		if matches == nil {
			continue
		}
		route.Handler(a, c, matches)
		return
	}
	c.Status(http.StatusNotFound)
}
