package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielolaszy/slacheck/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail = "ops@example.com"
	testToken = "test-token"
)

// newTestServer serves a tiny subset of the Jira REST API.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/myself", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		bearer := r.Header.Get("Authorization") == "Bearer "+testToken
		if !bearer && (!ok || user != testEmail || pass != testToken) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errorMessages":["Client must be authenticated"]}`)
			return
		}
		fmt.Fprint(w, `{"accountId":"5b10a2844c20165700ede21g","displayName":"Ops User","emailAddress":"ops@example.com"}`)
	})
	mux.HandleFunc("/rest/api/2/field", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":"summary","name":"Summary","custom":false,"clauseNames":["summary"],"schema":{"type":"string","system":"summary"}},
			{"id":"customfield_10151","name":"Health plan (migrated)","custom":true,"clauseNames":["cf[10151]","Health plan (migrated)"],"schema":{"type":"option","custom":"com.atlassian.jira.plugin.system.customfieldtypes:select","customId":10151}}
		]`)
	})
	mux.HandleFunc("/rest/api/3/search/jql", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, `project = ACS`, q.Get("jql"))
		assert.Equal(t, "created,issuelinks,customfield_10151", q.Get("fields"))

		switch q.Get("nextPageToken") {
		case "":
			fmt.Fprint(w, `{"issues":[
				{"key":"ACS-1","fields":{
					"created":"2024-01-15T10:30:00.000+0000",
					"summary":"Claims not loading",
					"status":{"name":"Open"},
					"project":{"key":"ACS"},
					"customfield_10151":{"value":"BCBSLA","id":"10020"},
					"issuelinks":[
						{"type":{"name":"Relates"},"outwardIssue":{"key":"LPM-7"}},
						{"type":{"name":"Blocks"},"inwardIssue":{"key":"ACS-9"}}
					]}}
			],"nextPageToken":"page-2","isLast":false}`)
		case "page-2":
			fmt.Fprint(w, `{"issues":[
				{"key":"ACS-2","fields":{"created":"2024-01-16T08:00:00.000+0000","status":{"name":"Closed"}}}
			],"isLast":true}`)
		default:
			t.Errorf("unexpected page token %q", q.Get("nextPageToken"))
		}
	})
	mux.HandleFunc("/rest/api/2/issue/LPM-7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "created,customfield_10356", r.URL.Query().Get("fields"))
		fmt.Fprint(w, `{"key":"LPM-7","fields":{
			"created":"2024-02-01T09:00:00.000+0000",
			"customfield_10356":[{"value":"Break Fix"}]}}`)
	})
	mux.HandleFunc("/rest/api/2/issue/LPM-404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorMessages":["Issue does not exist or you do not have permission to see it."]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(config.Credentials{
		SiteURL: server.URL,
		Email:   testEmail,
		Token:   testToken,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientCredentialValidation(t *testing.T) {
	testCases := []struct {
		name          string
		creds         config.Credentials
		errorContains string
	}{
		{
			name:          "Missing URL",
			creds:         config.Credentials{Email: testEmail, Token: testToken},
			errorContains: "site URL",
		},
		{
			name:          "Missing email",
			creds:         config.Credentials{SiteURL: "https://example.atlassian.net", Token: testToken},
			errorContains: "email",
		},
		{
			name:          "Missing token",
			creds:         config.Credentials{SiteURL: "https://example.atlassian.net", Email: testEmail},
			errorContains: "API token",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(tc.creds)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorContains)
		})
	}
}

func TestMyself(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	user, err := client.Myself(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ops User", user.DisplayName)
	assert.Equal(t, "ops@example.com", user.EmailAddress)
}

func TestMyselfBearerAuth(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(config.Credentials{
		SiteURL:  server.URL,
		Token:    testToken,
		AuthMode: config.AuthBearer,
	})
	require.NoError(t, err)

	user, err := client.Myself(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ops User", user.DisplayName)
}

func TestMyselfUnauthorized(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(config.Credentials{
		SiteURL: server.URL,
		Email:   testEmail,
		Token:   "wrong-token",
	})
	require.NoError(t, err)

	_, err = client.Myself(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized), "expected ErrUnauthorized, got %v", err)
	assert.Contains(t, err.Error(), "401")
}

func TestListFields(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	fields, err := client.ListFields(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "customfield_10151", fields[1].ID)
	assert.Equal(t, "Health plan (migrated)", fields[1].Name)
	assert.True(t, fields[1].Custom)
	assert.Equal(t, "option", fields[1].Type)
	assert.Contains(t, fields[1].ClauseNames, "cf[10151]")
}

func TestSearchTicketsFollowsPages(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	tickets, err := client.SearchTickets(context.Background(), "project = ACS",
		[]string{"created", "issuelinks", "customfield_10151"})
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	first := tickets[0]
	assert.Equal(t, "ACS-1", first.Key)
	assert.Equal(t, "ACS", first.Project)
	assert.Equal(t, "Claims not loading", first.Summary)
	assert.Equal(t, "Open", first.Status)
	assert.Equal(t, "BCBSLA", first.FieldValue("customfield_10151"))
	assert.Equal(t, []string{"LPM-7", "ACS-9"}, first.Links)
	assert.True(t, first.Created.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))

	assert.Equal(t, "ACS-2", tickets[1].Key)
	assert.Equal(t, "Closed", tickets[1].Status)
	assert.Empty(t, tickets[1].Links)
}

func TestGetTicket(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	ticket, err := client.GetTicket(context.Background(), "LPM-7", []string{"created", "customfield_10356"})
	require.NoError(t, err)
	assert.Equal(t, "LPM", ticket.Project)
	assert.Equal(t, "Break Fix", ticket.FieldValue("customfield_10356"))
	assert.True(t, ticket.Created.Equal(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)))
}

func TestGetTicketNotFound(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server)

	_, err := client.GetTicket(context.Background(), "LPM-404", []string{"created"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	assert.True(t, strings.Contains(err.Error(), "LPM-404"))
}
