// Package jira provides functionality for interacting with the Jira REST API.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/danielolaszy/slacheck/internal/config"
	"github.com/danielolaszy/slacheck/internal/logging"
	"github.com/danielolaszy/slacheck/pkg/models"
	"golang.org/x/oauth2"
)

var (
	// ErrUnauthorized is returned when Jira rejects the supplied credentials.
	ErrUnauthorized = errors.New("jira rejected the credentials")
	// ErrNotFound is returned when a requested ticket does not exist or is not visible.
	ErrNotFound = errors.New("jira ticket not found")
)

const (
	searchEndpoint = "rest/api/3/search/jql"
	searchPageSize = 100
	requestTimeout = 30 * time.Second
)

// Client encapsulates the JIRA API client.
type Client struct {
	client *jira.Client
}

// NewClient creates a Jira client for the given credentials. Basic auth
// (email + API token) is used for Jira Cloud; bearer auth sends the token
// as a personal access token for Jira Data Center.
func NewClient(creds config.Credentials) (*Client, error) {
	if err := config.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	var httpClient *http.Client
	switch creds.AuthMode {
	case config.AuthBearer:
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	default:
		tp := jira.BasicAuthTransport{
			Username: creds.Email,
			Password: creds.Token,
		}
		httpClient = tp.Client()
	}
	httpClient.Timeout = requestTimeout

	logging.Debug("jira configuration",
		"site_url", creds.SiteURL,
		"auth_mode", creds.AuthMode,
		"email", creds.Email,
		"token", logging.MaskSensitive(creds.Token))

	client, err := jira.NewClient(httpClient, creds.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{client: client}, nil
}

// Myself returns the authenticated user. It doubles as the connection test.
func (c *Client) Myself(ctx context.Context) (models.User, error) {
	user, resp, err := c.client.User.GetSelfWithContext(ctx)
	if err != nil {
		return models.User{}, wrapError("failed to verify jira credentials", resp, err)
	}

	logging.Info("jira authentication successful", "user", user.DisplayName)

	return models.User{
		AccountID:    user.AccountID,
		DisplayName:  user.DisplayName,
		EmailAddress: user.EmailAddress,
	}, nil
}

// ListFields returns metadata for every field visible to the user.
func (c *Client) ListFields(ctx context.Context) ([]models.Field, error) {
	fields, resp, err := c.client.Field.GetListWithContext(ctx)
	if err != nil {
		return nil, wrapError("failed to list jira fields", resp, err)
	}

	result := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		result = append(result, models.Field{
			ID:          f.ID,
			Name:        f.Name,
			Custom:      f.Custom,
			Type:        f.Schema.Type,
			ClauseNames: f.ClauseNames,
		})
	}

	logging.Debug("listed jira fields", "count", len(result))
	return result, nil
}

// searchPage is one page of the enhanced JQL search endpoint, which pages
// with an opaque token instead of startAt/total.
type searchPage struct {
	Issues        []jira.Issue `json:"issues"`
	NextPageToken string       `json:"nextPageToken"`
	IsLast        bool         `json:"isLast"`
}

// SearchTickets runs a JQL query and returns every matching ticket, following
// pagination until the last page.
func (c *Client) SearchTickets(ctx context.Context, jql string, fields []string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("jql", jql)
		params.Set("maxResults", strconv.Itoa(searchPageSize))
		if len(fields) > 0 {
			params.Set("fields", strings.Join(fields, ","))
		}
		if pageToken != "" {
			params.Set("nextPageToken", pageToken)
		}

		req, err := c.client.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build search request: %w", err)
		}

		var page searchPage
		resp, err := c.client.Do(req, &page)
		if err != nil {
			return nil, wrapError("failed to search jira issues", resp, err)
		}

		for _, issue := range page.Issues {
			tickets = append(tickets, toTicket(issue))
		}

		logging.Debug("fetched search page",
			"issues", len(page.Issues),
			"total_so_far", len(tickets),
			"is_last", page.IsLast)

		if page.IsLast || page.NextPageToken == "" || len(page.Issues) == 0 {
			break
		}
		pageToken = page.NextPageToken
	}

	return tickets, nil
}

// GetTicket fetches a single ticket by key, limited to the given fields.
func (c *Client) GetTicket(ctx context.Context, key string, fields []string) (models.Ticket, error) {
	opts := &jira.GetQueryOptions{Fields: strings.Join(fields, ",")}

	issue, resp, err := c.client.Issue.GetWithContext(ctx, key, opts)
	if err != nil {
		return models.Ticket{}, wrapError(fmt.Sprintf("failed to fetch ticket %s", key), resp, err)
	}

	return toTicket(*issue), nil
}

// toTicket converts a go-jira issue into the internal model.
func toTicket(issue jira.Issue) models.Ticket {
	ticket := models.Ticket{
		Key:     issue.Key,
		Project: models.ProjectOf(issue.Key),
		Fields:  make(map[string]string),
	}

	f := issue.Fields
	if f == nil {
		return ticket
	}

	if f.Project.Key != "" {
		ticket.Project = f.Project.Key
	}
	ticket.Summary = f.Summary
	if f.Status != nil {
		ticket.Status = f.Status.Name
	}
	ticket.Created = time.Time(f.Created)

	for _, link := range f.IssueLinks {
		if link == nil {
			continue
		}
		linked := link.OutwardIssue
		if linked == nil {
			linked = link.InwardIssue
		}
		if linked == nil || linked.Key == "" {
			continue
		}
		ticket.Links = append(ticket.Links, linked.Key)
	}

	for id, raw := range f.Unknowns {
		if value := ExtractFieldValue(raw); value != "" {
			ticket.Fields[id] = value
		}
	}

	return ticket
}

// wrapError attaches the HTTP status and maps auth and not-found responses
// to sentinel errors.
func wrapError(msg string, resp *jira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("%s: %w", msg, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w (status: %d)", msg, ErrUnauthorized, resp.StatusCode)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w (status: %d)", msg, ErrNotFound, resp.StatusCode)
	default:
		return fmt.Errorf("%s: %w (status: %d)", msg, err, resp.StatusCode)
	}
}
