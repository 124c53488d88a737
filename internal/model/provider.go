package model

import (
	"context"
	"log/slog"
	"net/http"
)

type LoadConfig struct {
	ArtifactURL       string
	ArtifactPath      string
	MetadataPath      string
	SharedLibraryPath string
}

// Load makes sure the artifact is on disk and returns a ready Server. It is
// safe to call again once the artifact exists; no second download happens.
func Load(ctx context.Context, cfg LoadConfig, client *http.Client) (*Server, error) {
	downloaded, err := EnsureArtifact(ctx, client, cfg.ArtifactURL, cfg.ArtifactPath)
	if err != nil {
		return nil, err
	}
	if downloaded {
		slog.Info("Model artifact downloaded", "path", cfg.ArtifactPath)
	}

	metadata, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("Loading model", "path", cfg.ArtifactPath, "classes", metadata.Classes)
	return NewServer(cfg.ArtifactPath, metadata, ServerOptions{
		SharedLibraryPath: cfg.SharedLibraryPath,
	})
}
