package nuget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/httpclient"
)

const (
	packageBaseAddressType = "PackageBaseAddress/3.0.0"
	serviceIndexCacheSize  = 128
)

type serviceIndex struct {
	Resources []struct {
		ID   string `json:"@id"`
		Type string `json:"@type"`
	} `json:"resources"`
}

type versionIndex struct {
	Versions []string `json:"versions"`
}

// FeedRepository reads package versions from NuGet v3 feeds through the
// PackageBaseAddress (flat container) resource of each feed's service index.
type FeedRepository struct {
	client        *retryablehttp.Client
	baseAddresses *lru.Cache[string, string]
	lookups       singleflight.Group
}

// NewFeedRepository creates a feed repository backed by a retrying HTTP client.
// Per-query deadlines come from the caller's context.
func NewFeedRepository() repositories.FeedRepository {
	return New(httpclient.New(0))
}

// New creates a feed repository using the given client.
func New(client *retryablehttp.Client) *FeedRepository {
	cache, err := lru.New[string, string](serviceIndexCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	return &FeedRepository{client: client, baseAddresses: cache}
}

// ListVersions returns every version the feed publishes for id. A package unknown
// to the feed yields an empty list.
func (p *FeedRepository) ListVersions(
	ctx context.Context,
	feed entities.FeedEndpoint,
	id string,
) ([]entities.Version, error) {
	baseAddress, err := p.packageBaseAddress(ctx, feed)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(baseAddress, "/") + "/" + strings.ToLower(id) + "/index.json"
	var index versionIndex
	found, err := p.getJSON(ctx, feed, url, &index)
	if err != nil || !found {
		return nil, err
	}

	versions := make([]entities.Version, 0, len(index.Versions))
	for _, raw := range index.Versions {
		version, parseErr := entities.ParseVersion(raw)
		if parseErr != nil {
			logger.Debugf("[nuget] %s: ignoring %v", id, parseErr)
			continue
		}
		versions = append(versions, version)
	}
	return versions, nil
}

// packageBaseAddress resolves (and caches for the process lifetime) the flat
// container URL advertised by the feed's service index.
func (p *FeedRepository) packageBaseAddress(ctx context.Context, feed entities.FeedEndpoint) (string, error) {
	if cached, ok := p.baseAddresses.Get(feed.URI); ok {
		return cached, nil
	}

	// concurrent misses for one feed share a single service index fetch
	address, err, _ := p.lookups.Do(feed.URI, func() (interface{}, error) {
		return p.fetchBaseAddress(ctx, feed)
	})
	if err != nil {
		return "", err
	}
	return address.(string), nil
}

func (p *FeedRepository) fetchBaseAddress(ctx context.Context, feed entities.FeedEndpoint) (string, error) {
	if cached, ok := p.baseAddresses.Get(feed.URI); ok {
		return cached, nil
	}

	var index serviceIndex
	found, err := p.getJSON(ctx, feed, feed.URI, &index)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: service index %s not found", entities.ErrFeedUnreachable, feed.URI)
	}

	for _, resource := range index.Resources {
		if resource.Type == packageBaseAddressType && resource.ID != "" {
			p.baseAddresses.Add(feed.URI, resource.ID)
			return resource.ID, nil
		}
	}
	return "", fmt.Errorf(
		"%w: %s does not advertise %s", entities.ErrFeedMalformedResponse, feed.URI, packageBaseAddressType,
	)
}

// getJSON decodes url into target; it reports false without error on 404.
func (p *FeedRepository) getJSON(
	ctx context.Context,
	feed entities.FeedEndpoint,
	url string,
	target interface{},
) (bool, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", entities.ErrFeedUnreachable, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if feed.HasCredentials() {
		req.SetBasicAuth(feed.Username, feed.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", entities.ErrFeedUnreachable, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, fmt.Errorf("%w: %s: status %d", entities.ErrFeedUnreachable, url, resp.StatusCode)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(target); decodeErr != nil {
		return false, fmt.Errorf("%w: %s: %v", entities.ErrFeedMalformedResponse, url, decodeErr)
	}
	return true, nil
}
