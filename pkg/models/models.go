// Package models defines data structures shared across the application.
package models

import (
	"strings"
	"time"
)

// Field roles used as keys in the settings field map.
const (
	FieldHealthPlan     = "health_plan"
	FieldCategory       = "category"
	FieldSourceOfID     = "source_of_identification"
	FieldConfigDoneDate = "config_done_date"
)

// Ticket represents a Jira ticket with the properties needed for SLA evaluation.
type Ticket struct {
	// Key is the full Jira ticket identifier (e.g., "ACS-123")
	Key string

	// Project is the project key the ticket belongs to (e.g., "ACS")
	Project string

	// Summary is the ticket's summary field
	Summary string

	// Status is the name of the ticket's current workflow status
	Status string

	// Created is the timestamp when the ticket was created
	Created time.Time

	// Fields holds display values of requested custom fields, keyed by field ID
	Fields map[string]string

	// Links holds the keys of tickets linked to this one, in either direction
	Links []string
}

// FieldValue returns the display value of the field with the given ID, or
// an empty string when the field is absent or the ID is empty.
func (t Ticket) FieldValue(fieldID string) string {
	if fieldID == "" || t.Fields == nil {
		return ""
	}
	return t.Fields[fieldID]
}

// LinksInProject returns the linked ticket keys that belong to project.
func (t Ticket) LinksInProject(project string) []string {
	var keys []string
	for _, key := range t.Links {
		if ProjectOf(key) == project {
			keys = append(keys, key)
		}
	}
	return keys
}

// ProjectOf extracts the project key from a ticket key ("LPM-42" -> "LPM").
func ProjectOf(key string) string {
	idx := strings.LastIndex(key, "-")
	if idx <= 0 {
		return ""
	}
	return key[:idx]
}

// Field describes a Jira field as returned by the field listing endpoint.
type Field struct {
	// ID is the internal identifier (e.g., "customfield_10151" or "summary")
	ID string

	// Name is the human-readable label shown in the Jira UI
	Name string

	// Custom is true for custom fields
	Custom bool

	// Type is the schema type (e.g., "option", "date", "string")
	Type string

	// ClauseNames are the names usable in JQL (e.g., "cf[10151]")
	ClauseNames []string
}

// FieldSpec names a field a rule needs: the settings role it is cached under
// and the Jira label used to find it.
type FieldSpec struct {
	Role     string
	Label    string
	Optional bool
}

// User is the authenticated Jira account.
type User struct {
	AccountID    string
	DisplayName  string
	EmailAddress string
}
