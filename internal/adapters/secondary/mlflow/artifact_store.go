package mlflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

const (
	artifactsProxyPrefix = "/api/2.0/mlflow-artifacts/artifacts"
	proxiedScheme        = "mlflow-artifacts:"
)

// artifactStore uploads through the tracking server's artifact proxy, so the
// run's artifact root must use the mlflow-artifacts scheme.
type artifactStore struct {
	client *Client
}

func NewArtifactStore(client *Client) ports.ArtifactStore {
	return &artifactStore{client: client}
}

func (s *artifactStore) Upload(ctx context.Context, runID string, name string, content io.Reader) error {
	if name == "" {
		return domain.ErrInvalidFileName
	}
	info, err := getRunInfo(ctx, s.client, runID)
	if err != nil {
		return err
	}

	root, err := proxiedRoot(info.ArtifactURI)
	if err != nil {
		return err
	}

	target := artifactsProxyPrefix + "/" + escapePath(path.Join(root, name))
	if err := s.client.put(ctx, target, content); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// List walks the run's artifact tree and returns file paths relative to its root.
func (s *artifactStore) List(ctx context.Context, runID string) ([]string, error) {
	names := []string{}
	pending := []string{""}

	for len(pending) > 0 {
		dir := pending[0]
		pending = pending[1:]

		query := url.Values{"run_id": {runID}}
		if dir != "" {
			query.Set("path", dir)
		}
		var resp listArtifactsResponse
		if err := s.client.get(ctx, apiPrefix+"/artifacts/list", query, &resp); err != nil {
			if errors.Is(err, errNotFound) {
				return nil, domain.ErrRunNotFound
			}
			return nil, fmt.Errorf("list artifacts: %w", err)
		}

		for _, f := range resp.Files {
			if f.IsDir {
				pending = append(pending, f.Path)
				continue
			}
			names = append(names, f.Path)
		}
	}
	return names, nil
}

func (s *artifactStore) URI(runID string, name string) string {
	return fmt.Sprintf("runs:/%s/%s", runID, name)
}

func proxiedRoot(artifactURI string) (string, error) {
	if !strings.HasPrefix(artifactURI, proxiedScheme) {
		return "", fmt.Errorf("artifact root %q is not served by the tracking server", artifactURI)
	}
	return strings.TrimLeft(strings.TrimPrefix(artifactURI, proxiedScheme), "/"), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
