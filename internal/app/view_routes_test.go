package app

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	u "splatview/internal/utils"
)

const cubePLY = `ply
format ascii 1.0
element vertex 8
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
0 0 0 255 0 0
10 0 0 0 255 0
0 10 0 0 0 255
0 0 10 255 255 0
10 10 0 255 0 255
10 0 10 0 255 255
0 10 10 128 128 128
10 10 10 255 255 255
`

func testConfig() u.Config {
	cfg := u.Config{}
	cfg.Limits.MaxUploadBytes = 1 << 20
	cfg.Limits.MaxSceneBytes = 64 << 20
	cfg.Viewer.DefaultPointSize = 5
	cfg.RateLimiter.Interval = time.Minute
	u.AppConfig = cfg
	u.LoadTokensFromMap(nil)
	return cfg
}

func uploadRequest(t *testing.T, target, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSampleSceneRoute(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/view", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "scatter3D")
}

func TestUploadSceneRoute(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	req := uploadRequest(t, "/v1/view", "cube.ply", cubePLY, map[string]string{
		"point_size":  "7",
		"splat_scale": "1.5",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rgb(255,0,0)")
}

func TestUploadRejectsNonPLYExtension(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	req := uploadRequest(t, "/v1/view", "cube.txt", cubePLY, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsBadSliderValues(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	req := uploadRequest(t, "/v1/view", "cube.ply", cubePLY, map[string]string{"point_size": "99"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = uploadRequest(t, "/v1/view", "cube.ply", cubePLY, map[string]string{"splat_scale": "9.5"})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvalidUploadReportsErrorAndCleansUp(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	app := SetupApp(testConfig(), nil)

	req := uploadRequest(t, "/v1/view", "junk.ply", "this is not a point cloud", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error.Message, "PLY")

	// The decode temp file must be gone on the failure path too.
	leftovers, err := filepath.Glob(filepath.Join(os.TempDir(), "splatview-*.ply"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCloudInfoRoute(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	req := uploadRequest(t, "/v1/view/info", "cube.ply", cubePLY, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		Points           int  `json:"points"`
		NormalsAvailable bool `json:"normals_available"`
		BoundingBox      struct {
			X []float64 `json:"x"`
			Y []float64 `json:"y"`
			Z []float64 `json:"z"`
		} `json:"bounding_box"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, 8, info.Points)
	assert.False(t, info.NormalsAvailable)
	assert.Equal(t, []float64{0, 10}, info.BoundingBox.X)
	assert.Equal(t, []float64{0, 10}, info.BoundingBox.Y)
	assert.Equal(t, []float64{0, 10}, info.BoundingBox.Z)
}

func TestDownloadRoute(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	req := uploadRequest(t, "/v1/download", "cube.ply", cubePLY, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "processed_pointcloud.ply")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.HasPrefix(text, "ply\n"))
	assert.Contains(t, text, "element vertex 8")
	assert.Contains(t, text, "property uchar red")
}

func TestSceneCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Cache.RedisHost = mr.Addr()
	cfg.Cache.SceneCacheEnabled = true
	cfg.Cache.SceneCacheTTL = time.Hour
	u.AppConfig = cfg

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := SetupApp(cfg, rdb)

	req := uploadRequest(t, "/v1/view", "cube.ply", cubePLY, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cacheKeys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "scenecache:") {
			cacheKeys = append(cacheKeys, k)
		}
	}
	require.Len(t, cacheKeys, 1)

	first, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Second identical request is served from the cache.
	resp, err = app.Test(uploadRequest(t, "/v1/view", "cube.ply", cubePLY, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	second, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}

func TestIndexPage(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Gaussian Splatting Viewer")
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	app := SetupApp(testConfig(), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}
