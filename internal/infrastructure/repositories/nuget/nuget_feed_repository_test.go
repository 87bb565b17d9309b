//go:build unit

package nuget_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/httpclient"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/nuget"
)

type feedServer struct {
	server       *httptest.Server
	indexHits    atomic.Int32
	lastUser     atomic.Value
	packageCode  int
	packageBody  string
	indexPayload string
	indexDelay   time.Duration
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()

	feed := &feedServer{packageCode: http.StatusOK}
	feed.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); ok {
			feed.lastUser.Store(user)
		}
		switch r.URL.Path {
		case "/v3/index.json":
			feed.indexHits.Add(1)
			time.Sleep(feed.indexDelay)
			payload := feed.indexPayload
			if payload == "" {
				payload = fmt.Sprintf(
					`{"version":"3.0.0","resources":[{"@id":"%s/search","@type":"SearchQueryService"},`+
						`{"@id":"%s/flat/","@type":"PackageBaseAddress/3.0.0"}]}`,
					feed.server.URL, feed.server.URL,
				)
			}
			_, _ = w.Write([]byte(payload))
		case "/flat/newtonsoft.json/index.json":
			w.WriteHeader(feed.packageCode)
			_, _ = w.Write([]byte(feed.packageBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(feed.server.Close)
	return feed
}

func (f *feedServer) endpoint() entities.FeedEndpoint {
	return entities.FeedEndpoint{Name: "test", URI: f.server.URL + "/v3/index.json"}
}

func newRepository() *nuget.FeedRepository {
	client := httpclient.New(0)
	client.RetryMax = 0
	return nuget.New(client)
}

func TestFeedRepositoryListVersions(t *testing.T) {
	t.Parallel()

	t.Run("should list versions from the flat container and skip unparsable entries", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		feed.packageBody = `{"versions":["12.0.1","13.0.1","13.0.4-beta1","not-a-version"]}`
		repository := newRepository()

		// when
		versions, err := repository.ListVersions(context.Background(), feed.endpoint(), "Newtonsoft.Json")

		// then
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, "13.0.4-beta1", versions[2].String())
	})

	t.Run("should resolve the service index once per feed", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		feed.packageBody = `{"versions":["13.0.1"]}`
		repository := newRepository()

		// when
		_, firstErr := repository.ListVersions(context.Background(), feed.endpoint(), "Newtonsoft.Json")
		_, secondErr := repository.ListVersions(context.Background(), feed.endpoint(), "Serilog")

		// then
		require.NoError(t, firstErr)
		require.NoError(t, secondErr)
		assert.Equal(t, int32(1), feed.indexHits.Load())
	})

	t.Run("should share one service index fetch between concurrent first queries", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		feed.indexDelay = 50 * time.Millisecond
		feed.packageBody = `{"versions":["13.0.1"]}`
		repository := newRepository()
		ids := []string{"Newtonsoft.Json", "Serilog", "Polly", "Dapper", "AutoMapper", "MediatR"}
		errs := make([]error, len(ids))

		// when
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				_, errs[i] = repository.ListVersions(context.Background(), feed.endpoint(), id)
			}(i, id)
		}
		wg.Wait()

		// then
		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), feed.indexHits.Load())
	})

	t.Run("should return no versions for a package the feed does not know", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		repository := newRepository()

		// when
		versions, err := repository.ListVersions(context.Background(), feed.endpoint(), "Unknown.Package")

		// then
		require.NoError(t, err)
		assert.Empty(t, versions)
	})

	t.Run("should report a server error as unreachable", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		feed.packageCode = http.StatusInternalServerError
		repository := newRepository()

		// when
		_, err := repository.ListVersions(context.Background(), feed.endpoint(), "Newtonsoft.Json")

		// then
		require.ErrorIs(t, err, entities.ErrFeedUnreachable)
	})

	t.Run("should report an undecodable body as malformed", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		feed.packageBody = `<html>maintenance</html>`
		repository := newRepository()

		// when
		_, err := repository.ListVersions(context.Background(), feed.endpoint(), "Newtonsoft.Json")

		// then
		require.ErrorIs(t, err, entities.ErrFeedMalformedResponse)
	})

	t.Run("should report a service index without flat container as malformed", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		feed.indexPayload = `{"version":"3.0.0","resources":[]}`
		repository := newRepository()

		// when
		_, err := repository.ListVersions(context.Background(), feed.endpoint(), "Newtonsoft.Json")

		// then
		require.ErrorIs(t, err, entities.ErrFeedMalformedResponse)
	})

	t.Run("should report a missing service index as unreachable", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		endpoint := entities.FeedEndpoint{Name: "test", URI: feed.server.URL + "/missing/index.json"}
		repository := newRepository()

		// when
		_, err := repository.ListVersions(context.Background(), endpoint, "Newtonsoft.Json")

		// then
		require.ErrorIs(t, err, entities.ErrFeedUnreachable)
	})

	t.Run("should send basic auth when the feed has credentials", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		feed.packageBody = `{"versions":["13.0.1"]}`
		endpoint := feed.endpoint()
		endpoint.Username, endpoint.Password = "ci", "secret"
		repository := newRepository()

		// when
		_, err := repository.ListVersions(context.Background(), endpoint, "Newtonsoft.Json")

		// then
		require.NoError(t, err)
		assert.Equal(t, "ci", feed.lastUser.Load())
	})

	t.Run("should fail fast on a cancelled context", func(t *testing.T) {
		t.Parallel()

		// given
		feed := newFeedServer(t)
		repository := newRepository()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		_, err := repository.ListVersions(ctx, feed.endpoint(), "Newtonsoft.Json")

		// then
		require.ErrorIs(t, err, entities.ErrFeedUnreachable)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
