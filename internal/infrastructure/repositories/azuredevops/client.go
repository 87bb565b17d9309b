package azuredevops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	apiVersion = "7.0"
	zeroObject = "0000000000000000000000000000000000000000"
)

var errNotFound = errors.New("not found")

// client is a minimal Azure DevOps Git REST client.
type client struct {
	baseURL    string
	token      string
	httpClient *retryablehttp.Client
}

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type repository struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	RemoteURL     string  `json:"remoteUrl"`
	SSHURL        string  `json:"sshUrl"`
	DefaultBranch string  `json:"defaultBranch"`
	IsDisabled    bool    `json:"isDisabled"`
	Project       project `json:"project"`
}

type item struct {
	ObjectID      string `json:"objectId"`
	GitObjectType string `json:"gitObjectType"`
	Path          string `json:"path"`
	IsFolder      bool   `json:"isFolder"`
}

type ref struct {
	Name     string `json:"name"`
	ObjectID string `json:"objectId"`
}

type refUpdateResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Status  string `json:"updateStatus"`
}

type pushResult struct {
	Commits []struct {
		CommitID string `json:"commitId"`
	} `json:"commits"`
}

type pullRequest struct {
	ID         int    `json:"pullRequestId"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Repository struct {
		WebURL string `json:"webUrl"`
	} `json:"repository"`
}

type connectionData struct {
	AuthenticatedUser struct {
		ID string `json:"id"`
	} `json:"authenticatedUser"`
}

func newClient(baseURL, token string, httpClient *retryablehttp.Client) *client {
	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *client) gitPath(org, projectName, repoID, resource string) string {
	return fmt.Sprintf("/%s/%s/_apis/git/repositories/%s/%s",
		url.PathEscape(org), url.PathEscape(projectName), url.PathEscape(repoID), resource)
}

func (c *client) getProjects(ctx context.Context, org string) ([]project, error) {
	var all []project
	continuation := ""
	for {
		query := url.Values{"api-version": {apiVersion}}
		if continuation != "" {
			query.Set("continuationToken", continuation)
		}

		var page struct {
			Value []project `json:"value"`
		}
		headers, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(org)+"/_apis/projects", query, nil, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Value...)

		continuation = headers.Get("x-ms-continuationtoken")
		if continuation == "" {
			return all, nil
		}
	}
}

func (c *client) getRepositories(ctx context.Context, org, projectName string) ([]repository, error) {
	var page struct {
		Value []repository `json:"value"`
	}
	endpoint := fmt.Sprintf("/%s/%s/_apis/git/repositories", url.PathEscape(org), url.PathEscape(projectName))
	if _, err := c.do(ctx, http.MethodGet, endpoint, url.Values{"api-version": {apiVersion}}, nil, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

func (c *client) getItems(ctx context.Context, org, projectName, repoID, branch string) ([]item, error) {
	query := url.Values{
		"api-version":                   {apiVersion},
		"recursionLevel":                {"Full"},
		"versionDescriptor.version":     {branch},
		"versionDescriptor.versionType": {"branch"},
	}
	var page struct {
		Value []item `json:"value"`
	}
	if _, err := c.do(ctx, http.MethodGet, c.gitPath(org, projectName, repoID, "items"), query, nil, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

func (c *client) getItemContent(ctx context.Context, org, projectName, repoID, path, branch string) ([]byte, error) {
	query := url.Values{
		"api-version":                   {apiVersion},
		"path":                          {path},
		"$format":                       {"octetStream"},
		"versionDescriptor.version":     {branch},
		"versionDescriptor.versionType": {"branch"},
	}
	var raw []byte
	if _, err := c.do(ctx, http.MethodGet, c.gitPath(org, projectName, repoID, "items"), query, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *client) getBranchRef(ctx context.Context, org, projectName, repoID, branch string) (*ref, error) {
	query := url.Values{"api-version": {apiVersion}, "filter": {"heads/" + branch}}
	var page struct {
		Value []ref `json:"value"`
	}
	if _, err := c.do(ctx, http.MethodGet, c.gitPath(org, projectName, repoID, "refs"), query, nil, &page); err != nil {
		return nil, err
	}
	// the filter is a prefix match
	for _, candidate := range page.Value {
		if candidate.Name == "refs/heads/"+branch {
			return &candidate, nil
		}
	}
	return nil, errNotFound
}

func (c *client) createRef(ctx context.Context, org, projectName, repoID, name, objectID string) error {
	body := []map[string]string{{
		"name":        name,
		"oldObjectId": zeroObject,
		"newObjectId": objectID,
	}}
	var result struct {
		Value []refUpdateResult `json:"value"`
	}
	query := url.Values{"api-version": {apiVersion}}
	if _, err := c.do(ctx, http.MethodPost, c.gitPath(org, projectName, repoID, "refs"), query, body, &result); err != nil {
		return err
	}
	for _, update := range result.Value {
		if !update.Success {
			return fmt.Errorf("ref update %s rejected: %s", update.Name, update.Status)
		}
	}
	return nil
}

type fileChange struct {
	Path       string
	Content    string
	ChangeType string
}

func (c *client) push(
	ctx context.Context,
	org, projectName, repoID, branchRef, oldObjectID, message string,
	changes []fileChange,
) (string, error) {
	entries := make([]map[string]interface{}, 0, len(changes))
	for _, change := range changes {
		entries = append(entries, map[string]interface{}{
			"changeType": change.ChangeType,
			"item":       map[string]string{"path": change.Path},
			"newContent": map[string]string{
				"content":     base64.StdEncoding.EncodeToString([]byte(change.Content)),
				"contentType": "base64encoded",
			},
		})
	}

	body := map[string]interface{}{
		"refUpdates": []map[string]string{{"name": branchRef, "oldObjectId": oldObjectID}},
		"commits":    []map[string]interface{}{{"comment": message, "changes": entries}},
	}

	var result pushResult
	query := url.Values{"api-version": {apiVersion}}
	if _, err := c.do(ctx, http.MethodPost, c.gitPath(org, projectName, repoID, "pushes"), query, body, &result); err != nil {
		return "", err
	}
	if len(result.Commits) == 0 {
		return "", errors.New("push response contains no commit")
	}
	return result.Commits[0].CommitID, nil
}

func (c *client) createPullRequest(
	ctx context.Context,
	org, projectName, repoID string,
	body map[string]interface{},
) (*pullRequest, error) {
	var created pullRequest
	query := url.Values{"api-version": {apiVersion}}
	if _, err := c.do(ctx, http.MethodPost, c.gitPath(org, projectName, repoID, "pullrequests"), query, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *client) setAutoComplete(ctx context.Context, org, projectName, repoID string, pullRequestID int) error {
	var identity connectionData
	if _, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(org)+"/_apis/connectionData", nil, nil, &identity); err != nil {
		return fmt.Errorf("failed to resolve the authenticated user: %w", err)
	}

	body := map[string]interface{}{
		"autoCompleteSetBy": map[string]string{"id": identity.AuthenticatedUser.ID},
		"completionOptions": map[string]interface{}{"deleteSourceBranch": true},
	}
	endpoint := c.gitPath(org, projectName, repoID, fmt.Sprintf("pullrequests/%d", pullRequestID))
	_, err := c.do(ctx, http.MethodPatch, endpoint, url.Values{"api-version": {apiVersion}}, body, nil)
	return err
}

// do sends a request and decodes the JSON answer into target. A *[]byte target
// receives the raw body. 404 is reported as errNotFound.
func (c *client) do(
	ctx context.Context,
	method, endpoint string,
	query url.Values,
	body interface{},
	target interface{},
) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	requestURL := c.baseURL + endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(":" + c.token))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, errNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	switch typed := target.(type) {
	case nil:
	case *[]byte:
		*typed = payload
	default:
		if err = json.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("failed to parse response of %s: %w", endpoint, err)
		}
	}
	return resp.Header, nil
}
