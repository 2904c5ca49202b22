package azuredevops

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

const (
	apiVersion       = "7.0"
	defaultTimeout   = 30 * time.Second
	continuationHead = "x-ms-continuationtoken"
)

// Client represents an Azure DevOps API client scoped to one organization
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Azure DevOps client
func NewClient(organization, pat string, timeout time.Duration) *Client {
	// Normalize organization URL
	org := strings.TrimSuffix(organization, "/")
	if !strings.HasPrefix(org, "https://") {
		org = "https://dev.azure.com/" + org
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    org,
		token:      pat,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL of the Azure DevOps organization
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GitRef is one entry of the refs API
type GitRef struct {
	Name           string `json:"name"`
	ObjectID       string `json:"objectId"`
	PeeledObjectID string `json:"peeledObjectId"`
}

// Repository represents an Azure DevOps Git repository
type Repository struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RemoteURL     string `json:"remoteUrl"`
	DefaultBranch string `json:"defaultBranch"`
}

// GetRefs returns every branch and tag of a repository, with annotated tags peeled
func (c *Client) GetRefs(ctx context.Context, project, repo string) ([]GitRef, error) {
	var allRefs []GitRef
	continuationToken := ""

	for {
		endpoint := fmt.Sprintf("/%s/_apis/git/repositories/%s/refs?peelTags=true&api-version=%s",
			url.PathEscape(project), url.PathEscape(repo), apiVersion)
		if continuationToken != "" {
			endpoint += "&continuationToken=" + url.QueryEscape(continuationToken)
		}

		resp, headers, err := c.doRequestWithHeaders(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}

		var result struct {
			Value []GitRef `json:"value"`
		}
		if err := json.Unmarshal(resp, &result); err != nil {
			return nil, fmt.Errorf("failed to parse refs response: %w", err)
		}
		allRefs = append(allRefs, result.Value...)

		continuationToken = headers.Get(continuationHead)
		if continuationToken == "" {
			break
		}
	}

	return allRefs, nil
}

// GetRepository returns the repository metadata, including its default branch
func (c *Client) GetRepository(ctx context.Context, project, repo string) (*Repository, error) {
	endpoint := fmt.Sprintf("/%s/_apis/git/repositories/%s?api-version=%s",
		url.PathEscape(project), url.PathEscape(repo), apiVersion)

	resp, _, err := c.doRequestWithHeaders(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	var repository Repository
	if err := json.Unmarshal(resp, &repository); err != nil {
		return nil, fmt.Errorf("failed to parse repository response: %w", err)
	}
	return &repository, nil
}

func (c *Client) doRequestWithHeaders(ctx context.Context, method, endpoint string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set Basic Auth with PAT
	if c.token != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(":" + c.token))
		req.Header.Set("Authorization", "Basic "+auth)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &entities.RemoteStatusError{
			Operation:  method + " " + endpoint,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(respBody))),
		}
	}

	return respBody, resp.Header, nil
}
