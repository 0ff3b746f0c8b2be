// Package httpapi is the OCI Distribution v2 HTTP shell over the registry
// operations: route dispatch, header handling, bearer auth, and the mapping
// of operation errors to status codes and OCI error bodies.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/registry"
	"github.com/wharfd/wharfd/pkg/registry/auth"
	"github.com/wharfd/wharfd/pkg/xlog"
)

const usernameKey = "wharfd.username"

// Config carries the HTTP-facing settings of the shell.
type Config struct {
	// AuthRealm is the token endpoint announced in the bearer challenge.
	AuthRealm string
	// AuthService is the service name announced in the bearer challenge.
	AuthService string
}

// API serves the distribution surface and the read-only browse surface.
type API struct {
	reg      *registry.Registry
	resolver auth.Resolver
	cfg      Config
}

// New returns an API over the registry and token resolver.
func New(reg *registry.Registry, resolver auth.Resolver, cfg Config) *API {
	return &API{reg: reg, resolver: resolver, cfg: cfg}
}

// Router builds the gin engine. Everything under /v2 requires a resolved
// bearer token; the /api browse surface is public and read-only.
func (a *API) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.Any("/v2", a.authenticate, a.dispatch)
	router.Any("/v2/*path", a.authenticate, a.dispatch)

	router.GET("/api/*rest", a.browse)

	return router
}

// authenticate resolves the bearer token and stores the username for the
// handlers. Unauthorized requests get the Www-Authenticate challenge.
func (a *API) authenticate(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		a.fail(c, errdefs.Newf(errdefs.ErrUnauthorized, "missing bearer token"))
		return
	}
	username, err := a.resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Set(usernameKey, username)
	c.Next()
}

func (a *API) username(c *gin.Context) string {
	return c.GetString(usernameKey)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		xlog.C(c.Request.Context()).Debug("handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// browse serves the read-only JSON surface: GET /api/repositories and
// GET /api/repositories/<name>/images. Repository names span path segments,
// so the paths are taken apart by hand.
func (a *API) browse(c *gin.Context) {
	rest := c.Param("rest")
	if rest == "/repositories" {
		repos, err := a.reg.ListRepositories(c.Request.Context())
		if err != nil {
			a.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, repos)
		return
	}
	scoped, hasPrefix := strings.CutPrefix(rest, "/repositories/")
	if name, ok := strings.CutSuffix(scoped, "/images"); hasPrefix && ok && name != "" {
		images, err := a.reg.ListImages(c.Request.Context(), name)
		if err != nil {
			a.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, images)
		return
	}
	c.Status(http.StatusNotFound)
}
