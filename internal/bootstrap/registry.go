package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"docbridge/pkg/logging"
)

// DefaultRegistryURL is the package index queried for available versions.
const DefaultRegistryURL = "https://pypi.org"

// registryRetryMax bounds transparent retries of a registry query. The soft
// update check treats any remaining failure as non-fatal.
const registryRetryMax = 2

// Registry answers "what is the latest published version of this package".
type Registry interface {
	LatestVersion(ctx context.Context, pkg string) (string, error)
}

// PyPIRegistry queries a PyPI-shaped JSON API. Only info.version is
// consulted from the response.
type PyPIRegistry struct {
	BaseURL string
	client  *retryablehttp.Client
}

// NewPyPIRegistry creates a registry client against the default index.
func NewPyPIRegistry() *PyPIRegistry {
	client := retryablehttp.NewClient()
	client.RetryMax = registryRetryMax
	client.Logger = nil

	return &PyPIRegistry{
		BaseURL: DefaultRegistryURL,
		client:  client,
	}
}

type pypiResponse struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

// LatestVersion implements Registry.
func (r *PyPIRegistry) LatestVersion(ctx context.Context, pkg string) (string, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", r.BaseURL, pkg)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: registry returned status %d for %s", ErrRegistryUnavailable, resp.StatusCode, pkg)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	var parsed pypiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed response for %s: %v", ErrRegistryUnavailable, pkg, err)
	}
	if parsed.Info.Version == "" {
		return "", fmt.Errorf("%w: no version in response for %s", ErrRegistryUnavailable, pkg)
	}

	logging.Debug("Registry", "Latest published version of %s is %s", pkg, parsed.Info.Version)
	return parsed.Info.Version, nil
}
