package rendering

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"maragu.dev/gomponents"
)

// Renderer renders gomponents nodes, either to bytes for fragments or to
// an HTTP response.
type Renderer interface {
	RenderComponent(ctx context.Context, component gomponents.Node) ([]byte, error)
	RenderPage(c echo.Context, status int, component gomponents.Node) error
}

// NodeRenderer implements Renderer and echo.Renderer.
type NodeRenderer struct{}

// New creates a NodeRenderer.
func New() *NodeRenderer {
	return &NodeRenderer{}
}

// RenderComponent renders component into a byte slice.
func (r *NodeRenderer) RenderComponent(_ context.Context, component gomponents.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := component.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render component to bytes: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage writes component as an HTML response.
func (r *NodeRenderer) RenderPage(c echo.Context, status int, component gomponents.Node) error {
	body, err := r.RenderComponent(c.Request().Context(), component)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, body)
}

// Render implements echo.Renderer so handlers can call c.Render(status, "",
// node). The name is ignored.
func (r *NodeRenderer) Render(w io.Writer, _ string, data interface{}, c echo.Context) error {
	node, ok := data.(gomponents.Node)
	if !ok {
		return fmt.Errorf("unsupported component type: %T", data)
	}
	if c.Response().Header().Get(echo.HeaderContentType) == "" {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	}
	return node.Render(w)
}
