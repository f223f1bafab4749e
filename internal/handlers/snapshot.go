package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/gofiber/fiber/v2"

	u "splatview/internal/utils"
)

// HandleSnapshot renders the scene in headless Chrome and responds with a PNG
// screenshot. GET snapshots the sample sphere; POST snapshots an upload.
func (svc *ViewService) HandleSnapshot(c *fiber.Ctx) error {
	var params *ViewParams
	var err error
	if c.Method() == fiber.MethodPost {
		params, err = svc.extractUploadParams(c)
	} else {
		params, err = svc.extractSliderParams(c)
	}
	if err != nil {
		return err
	}

	html, err := svc.renderScene(params)
	if err != nil {
		return mapSceneError(err)
	}

	png, err := svc.snapshotHTML(string(html))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			u.Error("Snapshot timeout", "timeout_secs", svc.Config.Viewer.SnapshotTimeoutSecs)
			return fiber.NewError(fiber.StatusRequestTimeout, "Snapshot took too long")
		}
		u.Error("Snapshot failed", "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, "Snapshot failed: "+err.Error())
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", "attachment; filename=pointcloud.png")
	return c.Send(png)
}

// snapshotHTML loads the scene page in a one-shot headless Chrome instance
// and screenshots it once the chart has had time to draw.
func (svc *ViewService) snapshotHTML(html string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		// Force software rendering; the GL scatter renders fine on swiftshader
		// and minimal containers have no GPU.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if svc.Config.Viewer.ChromePath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(svc.Config.Viewer.ChromePath))
	}
	if svc.Config.Viewer.ChromeNoSandbox {
		allocatorOptions = append(allocatorOptions, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, _ := chromedp.NewExecAllocator(context.Background(), allocatorOptions...)
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := time.Duration(svc.Config.Viewer.SnapshotTimeoutSecs) * time.Second
	chromeCtx, cancel = context.WithTimeout(chromeCtx, timeout)
	defer cancel()

	var png []byte
	actions := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Give the WebGL canvas a beat to paint before capturing.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 90),
	}

	if err := chromedp.Run(chromeCtx, actions...); err != nil {
		return nil, err
	}
	return png, nil
}
