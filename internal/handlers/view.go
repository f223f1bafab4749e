package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"splatview/internal/cloud"
	"splatview/internal/scene"
	u "splatview/internal/utils"
)

// ViewParams holds validated input for one render cycle. FileBytes nil means
// "no upload": the sample sphere is rendered instead.
type ViewParams struct {
	FileBytes  []byte
	PointSize  float64
	SplatScale float64
}

// ViewService bundles configuration and dependencies for the viewer routes.
type ViewService struct {
	Config *u.Config
	Redis  *redis.Client
}

// NewViewService creates a new ViewService instance.
func NewViewService(cfg u.Config, rdb *redis.Client) *ViewService {
	return &ViewService{
		Config: &cfg, // convert value to pointer
		Redis:  rdb,
	}
}

// HandleScene decodes an uploaded PLY file and responds with the rendered
// scene page.
func (svc *ViewService) HandleScene(c *fiber.Ctx) error {
	params, err := svc.extractUploadParams(c)
	if err != nil {
		return err
	}
	return svc.processScene(c, params)
}

// HandleSampleScene renders the built-in unit-sphere cloud, used by the index
// page before any upload.
func (svc *ViewService) HandleSampleScene(c *fiber.Ctx) error {
	params, err := svc.extractSliderParams(c)
	if err != nil {
		return err
	}
	return svc.processScene(c, params)
}

// processScene runs the decode -> build -> render pipeline with optional
// scene caching.
func (svc *ViewService) processScene(c *fiber.Ctx, params *ViewParams) error {
	cacheKey := computeSceneCacheKey(params)

	if svc.sceneCacheOn() {
		if cached, err := svc.getCachedScene(c, cacheKey); err == nil && cached != nil {
			c.Set("Content-Type", "text/html; charset=utf-8")
			return c.Send(cached)
		}
	}

	html, err := svc.renderScene(params)
	if err != nil {
		return mapSceneError(err)
	}

	if len(html) > svc.Config.Limits.MaxSceneBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Rendered scene exceeds allowed size")
	}

	if svc.sceneCacheOn() {
		svc.setCachedScene(c, cacheKey, html)
	}

	requestID := c.Get("X-Request-ID")
	u.Info("Scene rendered", "bytes", len(html), "request_id", requestID)

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(html)
}

// renderScene produces the scene HTML for the given params. Shared by the
// page and snapshot paths.
func (svc *ViewService) renderScene(params *ViewParams) ([]byte, error) {
	rec, err := svc.loadRecord(params)
	if err != nil {
		return nil, err
	}

	desc, err := scene.Build(rec, params.PointSize, params.SplatScale)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := scene.RenderHTML(&buf, desc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (svc *ViewService) loadRecord(params *ViewParams) (*cloud.Record, error) {
	if params.FileBytes == nil {
		return cloud.SampleSphere(), nil
	}
	return cloud.Decode(params.FileBytes)
}

func mapSceneError(err error) error {
	switch {
	case errors.Is(err, cloud.ErrDecode):
		u.Warn("PLY decode failed", "error", err.Error())
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Error processing the PLY file: "+err.Error())
	case errors.Is(err, scene.ErrEmptyCloud):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Point cloud is empty")
	default:
		u.Error("Scene rendering failed", "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, "Scene rendering failed: "+err.Error())
	}
}

// HandleCloudInfo decodes an upload and responds with the sidebar statistics:
// point count, per-axis bounding box and normals availability.
func (svc *ViewService) HandleCloudInfo(c *fiber.Ctx) error {
	params, err := svc.extractUploadParams(c)
	if err != nil {
		return err
	}

	rec, err := cloud.Decode(params.FileBytes)
	if err != nil {
		return mapSceneError(err)
	}

	info := fiber.Map{
		"points":            rec.Size(),
		"normals_available": rec.Normals != nil,
	}
	if bounds, ok := rec.Bounds(); ok {
		info["bounding_box"] = fiber.Map{
			"x": []float64{bounds.Min.X, bounds.Max.X},
			"y": []float64{bounds.Min.Y, bounds.Max.Y},
			"z": []float64{bounds.Min.Z, bounds.Max.Z},
		}
	}
	return c.JSON(info)
}

// HandleDownload re-serializes the uploaded cloud and sends it back as a PLY
// attachment.
func (svc *ViewService) HandleDownload(c *fiber.Ctx) error {
	params, err := svc.extractUploadParams(c)
	if err != nil {
		return err
	}

	rec, err := cloud.Decode(params.FileBytes)
	if err != nil {
		return mapSceneError(err)
	}

	var buf bytes.Buffer
	if err := cloud.WritePLY(&buf, rec); err != nil {
		u.Error("PLY encode failed", "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, "PLY encoding failed")
	}

	c.Set("Content-Type", "application/octet-stream")
	c.Set("Content-Disposition", "attachment; filename=processed_pointcloud.ply")
	return c.Send(buf.Bytes())
}

// extractUploadParams reads the multipart file plus sliders from the request.
func (svc *ViewService) extractUploadParams(c *fiber.Ctx) (*ViewParams, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Missing file upload")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".ply") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Only .ply files are accepted")
	}
	if fh.Size > int64(svc.Config.Limits.MaxUploadBytes) {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("Upload exceeds %d bytes", svc.Config.Limits.MaxUploadBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Cannot open file upload")
	}
	defer f.Close()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Cannot read file upload")
	}

	params, err := svc.extractSliderParams(c)
	if err != nil {
		return nil, err
	}
	params.FileBytes = fileBytes
	return params, nil
}

// extractSliderParams validates point_size and splat_scale from form or query
// values, falling back to the defaults the UI sliders start at.
func (svc *ViewService) extractSliderParams(c *fiber.Ctx) (*ViewParams, error) {
	pointSize := float64(svc.Config.Viewer.DefaultPointSize)
	if raw := formOrQuery(c, "point_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid point_size: must be an integer between 1 and 20")
		}
		pointSize = float64(n)
	}

	splatScale := 1.0
	if raw := formOrQuery(c, "splat_scale"); raw != "" {
		s, err := strconv.ParseFloat(raw, 64)
		if err != nil || s < 0.1 || s > 3.0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid splat_scale: must be a float between 0.1 and 3.0")
		}
		splatScale = s
	}

	return &ViewParams{PointSize: pointSize, SplatScale: splatScale}, nil
}

func formOrQuery(c *fiber.Ctx, key string) string {
	if v := c.FormValue(key); v != "" {
		return v
	}
	return c.Query(key)
}

func (svc *ViewService) sceneCacheOn() bool {
	return svc.Redis != nil && svc.Config.Cache.SceneCacheEnabled
}

// computeSceneCacheKey creates a SHA256-based cache key over the file bytes
// and both display parameters.
func computeSceneCacheKey(params *ViewParams) string {
	h := sha256.New()
	h.Write(params.FileBytes)
	h.Write([]byte(strconv.FormatFloat(params.PointSize, 'f', 2, 64)))
	h.Write([]byte(strconv.FormatFloat(params.SplatScale, 'f', 2, 64)))
	return "scenecache:" + hex.EncodeToString(h.Sum(nil))
}

// getCachedScene attempts to retrieve a rendered scene from Redis.
func (svc *ViewService) getCachedScene(c *fiber.Ctx, key string) ([]byte, error) {
	ctxRedis, cancel := context.WithTimeout(c.Context(), 1*time.Second)
	defer cancel()

	cached, err := svc.Redis.Get(ctxRedis, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		u.Warn("Redis read failed", "error", err)
		return nil, err
	}

	u.Info("Scene cache hit", "key", key)
	return cached, nil
}

// setCachedScene stores a rendered scene in Redis.
func (svc *ViewService) setCachedScene(c *fiber.Ctx, key string, html []byte) {
	ctxRedis, cancel := context.WithTimeout(c.Context(), 1*time.Second)
	defer cancel()

	ttl := svc.Config.Cache.SceneCacheTTL
	if ttl <= 0 {
		ttl = 1 * time.Minute
	}

	if err := svc.Redis.Set(ctxRedis, key, html, ttl).Err(); err != nil {
		u.Warn("Redis write failed", "error", err)
	}
}
