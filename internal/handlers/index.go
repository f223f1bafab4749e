package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// indexHTML is the upload shell: sliders, file picker and the scene iframe.
// It starts on the sample sphere and swaps the iframe target on upload.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>3D Gaussian Splatting Viewer</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; }
#sidebar { width: 280px; padding: 16px; background: #f4f4f4; min-height: 100vh; }
#sidebar h2 { margin-top: 0; }
#view { flex: 1; padding: 16px; }
#scene { width: 920px; height: 820px; border: 0; }
#stats { font-size: 13px; white-space: pre-line; }
label { display: block; margin-top: 12px; font-size: 14px; }
</style>
</head>
<body>
<div id="sidebar">
  <h2>Controls</h2>
  <form id="controls">
    <label>Upload a PLY file
      <input type="file" id="file" accept=".ply">
    </label>
    <label>Point Size: <span id="psv">5</span>
      <input type="range" id="point_size" min="1" max="20" step="1" value="5">
    </label>
    <label>Gaussian Splat Scale: <span id="ssv">1.0</span>
      <input type="range" id="splat_scale" min="0.1" max="3.0" step="0.1" value="1.0">
    </label>
    <button type="button" id="download">Download Processed Point Cloud</button>
  </form>
  <h2>Point Cloud Information</h2>
  <div id="stats">Upload a PLY file to visualize it with Gaussian splatting.</div>
</div>
<div id="view">
  <h1>3D Gaussian Splatting Viewer</h1>
  <iframe id="scene" src="/v1/view"></iframe>
</div>
<script>
const fileInput = document.getElementById('file');
const pointSize = document.getElementById('point_size');
const splatScale = document.getElementById('splat_scale');

function formData() {
  const fd = new FormData();
  fd.append('file', fileInput.files[0]);
  fd.append('point_size', pointSize.value);
  fd.append('splat_scale', splatScale.value);
  return fd;
}

async function refresh() {
  document.getElementById('psv').textContent = pointSize.value;
  document.getElementById('ssv').textContent = splatScale.value;
  const frame = document.getElementById('scene');
  if (!fileInput.files.length) {
    frame.src = '/v1/view?point_size=' + pointSize.value + '&splat_scale=' + splatScale.value;
    return;
  }
  const resp = await fetch('/v1/view', { method: 'POST', body: formData() });
  if (!resp.ok) {
    const body = await resp.json().catch(() => null);
    document.getElementById('stats').textContent =
      body && body.error ? body.error.message : 'Error processing the PLY file';
    return;
  }
  frame.srcdoc = await resp.text();
  const info = await fetch('/v1/view/info', { method: 'POST', body: formData() });
  if (info.ok) {
    const s = await info.json();
    let text = 'Number of points: ' + s.points + '\n';
    if (s.bounding_box) {
      text += 'X: [' + s.bounding_box.x.map(v => v.toFixed(2)).join(', ') + ']\n';
      text += 'Y: [' + s.bounding_box.y.map(v => v.toFixed(2)).join(', ') + ']\n';
      text += 'Z: [' + s.bounding_box.z.map(v => v.toFixed(2)).join(', ') + ']\n';
    }
    text += 'Normals: ' + (s.normals_available ? 'Available' : 'Not available');
    document.getElementById('stats').textContent = text;
  }
}

fileInput.addEventListener('change', refresh);
pointSize.addEventListener('change', refresh);
splatScale.addEventListener('change', refresh);

document.getElementById('download').addEventListener('click', async () => {
  if (!fileInput.files.length) return;
  const resp = await fetch('/v1/download', { method: 'POST', body: formData() });
  if (!resp.ok) return;
  const blob = await resp.blob();
  const a = document.createElement('a');
  a.href = URL.createObjectURL(blob);
  a.download = 'processed_pointcloud.ply';
  a.click();
  URL.revokeObjectURL(a.href);
});
</script>
</body>
</html>`

// HandleIndex serves the upload shell.
func (svc *ViewService) HandleIndex(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(indexHTML)
}
