// Package api implements the HTTP JSON client for the remote job-board
// service. The service exposes json-server style collections: users, jobs
// and jobApplications, addressed by id with simple equality query filters.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sucheta/jobport/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("api: not found")

// StatusError reports an unexpected HTTP status from the service.
type StatusError struct {
	// Code is the HTTP status code received.
	Code int
	// Op names the request that failed, e.g. "POST /users".
	Op string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s returned status %d", e.Op, e.Code)
}

// Client calls the remote service. It is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client for the service at baseURL. If httpClient is nil,
// http.DefaultClient is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
	}
}

// UserByEmail looks up the account registered under email. The email is
// lowercased before the query. Returns ErrNotFound when no account matches.
func (c *Client) UserByEmail(ctx context.Context, email string) (models.Identity, error) {
	q := url.Values{"email": {strings.ToLower(email)}}
	var users []models.Identity
	if err := c.get(ctx, "/users?"+q.Encode(), &users); err != nil {
		return models.Identity{}, err
	}
	if len(users) == 0 {
		return models.Identity{}, ErrNotFound
	}
	if err := users[0].Validate(); err != nil {
		return models.Identity{}, fmt.Errorf("api: malformed user record: %w", err)
	}
	return users[0], nil
}

// CreateUser registers a new account. The service must answer 201 Created
// and echo the stored record with its assigned id.
func (c *Client) CreateUser(ctx context.Context, u models.Identity) (models.Identity, error) {
	var created models.Identity
	if err := c.send(ctx, http.MethodPost, "/users", u, http.StatusCreated, &created); err != nil {
		return models.Identity{}, err
	}
	if err := created.Validate(); err != nil {
		return models.Identity{}, fmt.Errorf("api: malformed user record: %w", err)
	}
	return created, nil
}

// UpdateUser replaces the stored record for u.ID and returns the updated
// record as stored by the service.
func (c *Client) UpdateUser(ctx context.Context, u models.Identity) (models.Identity, error) {
	if u.ID == "" {
		return models.Identity{}, errors.New("api: update user: missing id")
	}
	var updated models.Identity
	if err := c.send(ctx, http.MethodPut, "/users/"+url.PathEscape(u.ID), u, http.StatusOK, &updated); err != nil {
		return models.Identity{}, err
	}
	if err := updated.Validate(); err != nil {
		return models.Identity{}, fmt.Errorf("api: malformed user record: %w", err)
	}
	return updated, nil
}

// Jobs lists every job posting.
func (c *Client) Jobs(ctx context.Context) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	if err := c.get(ctx, "/jobs", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// CreateJob creates a job posting and returns the stored record.
func (c *Client) CreateJob(ctx context.Context, j models.JobPosting) (models.JobPosting, error) {
	var created models.JobPosting
	if err := c.send(ctx, http.MethodPost, "/jobs", j, http.StatusCreated, &created); err != nil {
		return models.JobPosting{}, err
	}
	if created.ID == "" {
		return models.JobPosting{}, errors.New("api: created job has no id")
	}
	return created, nil
}

// ApplicationForJob fetches the application aggregate for jobID. Returns
// ErrNotFound when no aggregate exists yet for that job.
func (c *Client) ApplicationForJob(ctx context.Context, jobID string) (models.JobApplication, error) {
	q := url.Values{"jobId": {jobID}}
	var apps []models.JobApplication
	if err := c.get(ctx, "/jobApplications?"+q.Encode(), &apps); err != nil {
		return models.JobApplication{}, err
	}
	if len(apps) == 0 {
		return models.JobApplication{}, ErrNotFound
	}
	return apps[0], nil
}

// Applications lists every application aggregate. The service has no
// applicant filter, so reconciliation downloads the full collection and
// filters client-side.
func (c *Client) Applications(ctx context.Context) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	if err := c.get(ctx, "/jobApplications", &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// CreateApplication stores a new application aggregate.
func (c *Client) CreateApplication(ctx context.Context, a models.JobApplication) (models.JobApplication, error) {
	var created models.JobApplication
	if err := c.send(ctx, http.MethodPost, "/jobApplications", a, http.StatusCreated, &created); err != nil {
		return models.JobApplication{}, err
	}
	return created, nil
}

// UpdateApplication replaces the aggregate stored under a.ID.
func (c *Client) UpdateApplication(ctx context.Context, a models.JobApplication) (models.JobApplication, error) {
	if a.ID == "" {
		return models.JobApplication{}, errors.New("api: update application: missing id")
	}
	var updated models.JobApplication
	if err := c.send(ctx, http.MethodPut, "/jobApplications/"+url.PathEscape(a.ID), a, http.StatusOK, &updated); err != nil {
		return models.JobApplication{}, err
	}
	return updated, nil
}

// get issues a GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Op: "GET " + path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode GET %s: %w", path, err)
	}
	return nil
}

// send issues a request with a JSON body and decodes the response into out
// when the status matches want.
func (c *Client) send(ctx context.Context, method, path string, body any, want int, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("api: encode %s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return &StatusError{Code: resp.StatusCode, Op: method + " " + path}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}
