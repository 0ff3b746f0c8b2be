package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharfd/wharfd/pkg/ocispec"
	"github.com/wharfd/wharfd/pkg/registry"
	"github.com/wharfd/wharfd/pkg/registry/auth"
	"github.com/wharfd/wharfd/pkg/registry/content"
	"github.com/wharfd/wharfd/pkg/registry/httpapi"
	"github.com/wharfd/wharfd/pkg/registry/index"
)

const testToken = "test-token"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	idx, err := index.Open(filepath.Join(t.TempDir(), "index.db"), index.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	reg := registry.New(idx, content.NewStoreWithFs(afero.NewMemMapFs(), "/data"))
	api := httpapi.New(reg, auth.Static{testToken: "alice"}, httpapi.Config{
		AuthRealm:   "https://auth.example.com/token",
		AuthService: "wharfd",
	})
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body []byte, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, data
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var parsed struct {
		Errors []struct {
			Code string `json:"code"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.NotEmpty(t, parsed.Errors)
	return parsed.Errors[0].Code
}

// pushBlob drives a monolithic upload over HTTP and returns the digest.
func pushBlob(t *testing.T, srv *httptest.Server, name string, data []byte) digest.Digest {
	t.Helper()
	resp, _ := do(t, srv, http.MethodPost, "/v2/"+name+"/blobs/uploads", nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.NotEmpty(t, location)

	resp, _ = do(t, srv, http.MethodPatch, location, data, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	location = resp.Header.Get("Location")

	d := digest.FromBytes(data)
	resp, _ = do(t, srv, http.MethodPut, location+"?digest="+d.String(), nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return d
}

func manifestFor(t *testing.T, config digest.Digest, size int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"schemaVersion": 2,
		"mediaType":     ocispec.MediaTypeDockerManifest,
		"config": map[string]any{
			"mediaType": ocispec.MediaTypeDockerImageConfig,
			"digest":    config.String(),
			"size":      size,
		},
		"layers": []any{},
	})
	require.NoError(t, err)
	return body
}

func TestUnauthorizedChallenge(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v2", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t,
		`Bearer realm="https://auth.example.com/token",service="wharfd",scope=""`,
		resp.Header.Get("Www-Authenticate"))
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestPingAuthorized(t *testing.T) {
	srv := newServer(t)
	resp, _ := do(t, srv, http.MethodGet, "/v2", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMonolithicPushOverHTTP(t *testing.T) {
	srv := newServer(t)
	const name = "lib/hello"

	resp, _ := do(t, srv, http.MethodPost, "/v2/"+name+"/blobs/uploads", nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "0-0", resp.Header.Get("Range"))
	assert.NotEmpty(t, resp.Header.Get("Docker-Upload-UUID"))
	location := resp.Header.Get("Location")
	assert.Contains(t, location, "/v2/"+name+"/blobs/uploads/")

	payload := []byte("hello world!")
	resp, _ = do(t, srv, http.MethodPatch, location, payload, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "0-11", resp.Header.Get("Range"))

	d := digest.FromBytes(payload)
	resp, _ = do(t, srv, http.MethodPut, resp.Header.Get("Location")+"?digest="+d.String(), nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, d.String(), resp.Header.Get("Docker-Content-Digest"))
	assert.NotEmpty(t, resp.Header.Get("Location"))

	resp, body := do(t, srv, http.MethodGet, "/v2/"+name+"/blobs/"+d.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, payload, body)
	assert.Equal(t, "application/gzip", resp.Header.Get("Content-Type"))
	assert.Equal(t, d.String(), resp.Header.Get("Docker-Content-Digest"))
}

func TestManifestLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)
	const name = "lib/manifests"

	config := pushBlob(t, srv, name, []byte("config bytes"))
	body := manifestFor(t, config, 12)

	resp, _ := do(t, srv, http.MethodPut, "/v2/"+name+"/manifests/latest", body,
		map[string]string{"Content-Type": ocispec.MediaTypeDockerManifest})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := digest.FromBytes(body)
	assert.Equal(t, d.String(), resp.Header.Get("Docker-Content-Digest"))
	assert.Equal(t, "/v2/"+name+"/manifests/"+d.String(), resp.Header.Get("Location"))

	resp, got := do(t, srv, http.MethodGet, "/v2/"+name+"/manifests/latest", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, body, got)
	assert.Equal(t, ocispec.MediaTypeDockerManifest, resp.Header.Get("Content-Type"))
	assert.Equal(t, d.String(), resp.Header.Get("Docker-Content-Digest"))

	resp, got = do(t, srv, http.MethodHead, "/v2/"+name+"/manifests/latest", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, got)
	assert.Equal(t, d.String(), resp.Header.Get("Docker-Content-Digest"))

	resp, got = do(t, srv, http.MethodGet, "/v2/"+name+"/tags/list", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(got, &tags))
	assert.Equal(t, name, tags.Name)
	assert.Equal(t, []string{"latest"}, tags.Tags)

	resp, _ = do(t, srv, http.MethodDelete, "/v2/"+name+"/manifests/"+d.String(), nil, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, got = do(t, srv, http.MethodGet, "/v2/"+name+"/manifests/latest", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "MANIFEST_UNKNOWN", errorCode(t, got))

	resp, _ = do(t, srv, http.MethodDelete, "/v2/"+name+"/blobs/"+config.String(), nil, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestChunkedUploadOverHTTP(t *testing.T) {
	srv := newServer(t)
	const name = "lib/chunks"

	resp, _ := do(t, srv, http.MethodPost, "/v2/"+name+"/blobs/uploads", nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	first := resp.Header.Get("Location")

	chunk1 := bytes.Repeat([]byte("a"), 1000)
	resp, _ = do(t, srv, http.MethodPatch, first, chunk1, map[string]string{"Content-Range": "0-999"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "0-999", resp.Header.Get("Range"))
	second := resp.Header.Get("Location")

	// Reusing the consumed session is rejected with 416.
	resp, body := do(t, srv, http.MethodPatch, first, chunk1, nil)
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	assert.Equal(t, "BLOB_UPLOAD_INVALID", errorCode(t, body))

	// Resume from the stale location.
	resp, _ = do(t, srv, http.MethodGet, first, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "0-999", resp.Header.Get("Range"))
	assert.Equal(t, second, resp.Header.Get("Location"))

	chunk2 := bytes.Repeat([]byte("b"), 500)
	resp, _ = do(t, srv, http.MethodPatch, second, chunk2, map[string]string{"Content-Range": "1000-1499"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "0-1499", resp.Header.Get("Range"))

	full := append(append([]byte{}, chunk1...), chunk2...)
	d := digest.FromBytes(full)
	resp, _ = do(t, srv, http.MethodPut, resp.Header.Get("Location")+"?digest="+d.String(), nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, got := do(t, srv, http.MethodGet, "/v2/"+name+"/blobs/"+d.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, full, got)
}

func TestOutOfOrderChunkOverHTTP(t *testing.T) {
	srv := newServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/v2/lib/order/blobs/uploads", nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPatch, resp.Header.Get("Location"),
		bytes.Repeat([]byte("z"), 500), map[string]string{"Content-Range": "500-999"})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	assert.Equal(t, "BLOB_UPLOAD_INVALID", errorCode(t, body))
}

func TestFinalizeErrorsOverHTTP(t *testing.T) {
	srv := newServer(t)
	const name = "lib/finalize"

	resp, _ := do(t, srv, http.MethodPost, "/v2/"+name+"/blobs/uploads", nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	location := resp.Header.Get("Location")

	resp, _ = do(t, srv, http.MethodPatch, location, []byte("data"), nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	location = resp.Header.Get("Location")

	resp, body := do(t, srv, http.MethodPut, location+"?digest="+digest.FromString("wrong").String(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "DIGEST_INVALID", errorCode(t, body))

	resp, body = do(t, srv, http.MethodPut, location+"?digest=md5:abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "UNSUPPORTED", errorCode(t, body))

	resp, body = do(t, srv, http.MethodPut, location, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "DIGEST_INVALID", errorCode(t, body))

	resp, body = do(t, srv, http.MethodPut, "/v2/"+name+"/blobs/uploads/not-a-uuid?digest="+digest.FromString("x").String(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BLOB_UPLOAD_INVALID", errorCode(t, body))
}

func TestBlobDeleteGuardOverHTTP(t *testing.T) {
	srv := newServer(t)
	const name = "lib/guard"

	config := pushBlob(t, srv, name, []byte("config"))
	body := manifestFor(t, config, 6)
	resp, _ := do(t, srv, http.MethodPut, "/v2/"+name+"/manifests/v1", body,
		map[string]string{"Content-Type": ocispec.MediaTypeDockerManifest})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, got := do(t, srv, http.MethodDelete, "/v2/"+name+"/blobs/"+config.String(), nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DENIED", errorCode(t, got))
}

func TestFatManifestRejectedOverHTTP(t *testing.T) {
	srv := newServer(t)

	body, err := json.Marshal(map[string]any{
		"schemaVersion": 2,
		"mediaType":     ocispec.MediaTypeImageIndex,
		"manifests":     []any{},
	})
	require.NoError(t, err)

	resp, got := do(t, srv, http.MethodPut, "/v2/lib/fat/manifests/latest", body,
		map[string]string{"Content-Type": ocispec.MediaTypeImageIndex})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, "UNSUPPORTED", errorCode(t, got))
}

func TestUnknownBlobAndManifest(t *testing.T) {
	srv := newServer(t)
	d := digest.FromString("missing")

	resp, body := do(t, srv, http.MethodGet, "/v2/lib/none/blobs/"+d.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "BLOB_UNKNOWN", errorCode(t, body))

	resp, body = do(t, srv, http.MethodGet, "/v2/lib/none/manifests/latest", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "MANIFEST_UNKNOWN", errorCode(t, body))
}

func TestBrowseSurfaceIsPublic(t *testing.T) {
	srv := newServer(t)
	pushBlob(t, srv, "lib/public", []byte("blob"))

	// No Authorization header at all.
	resp, err := srv.Client().Get(srv.URL + "/api/repositories")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var repos []struct {
		Name  string `json:"name"`
		Owner string `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(body, &repos))
	require.Len(t, repos, 1)
	assert.Equal(t, "lib/public", repos[0].Name)
	assert.Equal(t, "alice", repos[0].Owner)

	resp, err = srv.Client().Get(srv.URL + "/api/repositories/lib/public/images")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTagsPaginationOverHTTP(t *testing.T) {
	srv := newServer(t)
	const name = "lib/paging"

	config := pushBlob(t, srv, name, []byte("config"))
	for _, tag := range []string{"v1", "v2", "v3"} {
		body := manifestFor(t, config, 6)
		resp, _ := do(t, srv, http.MethodPut, "/v2/"+name+"/manifests/"+tag, body,
			map[string]string{"Content-Type": ocispec.MediaTypeDockerManifest})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/v2/"+name+"/tags/list?n=2&last=v1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags struct {
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(body, &tags))
	assert.Equal(t, []string{"v2", "v3"}, tags.Tags)
}
