package ctxcomp

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoFileRenderer is returned by the fallback renderer installed when no FileRenderer was
// configured.
var ErrNoFileRenderer = errors.New("no FileRenderer configured, register one with Config.FileRenderer")

// FileRenderer renders a template file with a model for the current request.
type FileRenderer interface {
	Render(ctx context.Context, filePath string, model map[string]any) (string, error)
}

// NotImplementedRenderer is the fallback FileRenderer. It fails every render.
type NotImplementedRenderer struct{}

func (NotImplementedRenderer) Render(_ context.Context, filePath string, _ map[string]any) (string, error) {
	return "", fmt.Errorf("rendering %s: %w", filePath, ErrNoFileRenderer)
}
