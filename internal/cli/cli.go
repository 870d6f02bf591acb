// Package cli holds setup shared by the render-graph commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"render-graph/config"
	"render-graph/internal/logger"
	"render-graph/renderer"
	"render-graph/scenefile"
)

// Setup loads the config at path (defaults when empty) and installs its
// logger.
func Setup(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	l, err := cfg.Log.Logger()
	if err != nil {
		return cfg, fmt.Errorf("logger: %w", err)
	}
	renderer.SetLogger(l)
	return cfg, nil
}

// LoadScene reads and builds a scene file, drawing a progress bar on
// stderr while assets decode.
func LoadScene(ctx context.Context, path string, cfg config.Config) (*scenefile.Document, *scenefile.Result, error) {
	doc, err := scenefile.Read(path)
	if err != nil {
		return nil, nil, err
	}

	opts := scenefile.Options{MaxTextureSize: cfg.Renderer.MaxTextureSize}
	if total := doc.AssetCount(); total > 0 {
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("loading assets"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		opts.Progress = func(done, _ int) { _ = bar.Set(done) }
	}

	res, err := doc.Build(ctx, filepath.Dir(path), opts)
	if err != nil {
		return nil, nil, err
	}
	logger.Log.Debug("scene loaded", zap.String("path", path))
	return doc, res, nil
}
