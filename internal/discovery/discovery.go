// Package discovery maps human-readable Jira field labels to field IDs and
// caches the result in the settings.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danielolaszy/slacheck/internal/logging"
	"github.com/danielolaszy/slacheck/pkg/models"
)

// MaxAttempts is how many labels are tried for one field before giving up.
const MaxAttempts = 3

var (
	// ErrNoMatch is returned when no field matches after every attempt.
	ErrNoMatch = errors.New("no jira field matches")
	// ErrAborted is returned when the user cancels a choice.
	ErrAborted = errors.New("field discovery aborted")
)

// FieldLister lists the fields visible to the current user.
type FieldLister interface {
	ListFields(ctx context.Context) ([]models.Field, error)
}

// Asker collects user input during discovery.
type Asker interface {
	// AskLabel asks for another label after attempt failed to match.
	// An empty answer skips an optional field.
	AskLabel(spec models.FieldSpec, attempt int) (string, error)
	// ChooseField picks one of several matching fields.
	ChooseField(label string, candidates []models.Field) (models.Field, error)
}

// Store holds the cached role to field ID mapping.
type Store interface {
	FieldID(role string) string
	SetFieldID(role, id string)
}

// Match returns the fields whose name equals label, ignoring case. When
// there are none it falls back to fields whose name contains label.
func Match(fields []models.Field, label string) []models.Field {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return nil
	}

	var exact, partial []models.Field
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		switch {
		case name == needle:
			exact = append(exact, f)
		case strings.Contains(name, needle):
			partial = append(partial, f)
		}
	}

	if len(exact) > 0 {
		return exact
	}
	sort.SliceStable(partial, func(i, j int) bool {
		return partial[i].Name < partial[j].Name
	})
	return partial
}

// Discoverer resolves field IDs interactively.
type Discoverer struct {
	lister FieldLister
	asker  Asker
	fields []models.Field
}

// New creates a Discoverer.
func New(lister FieldLister, asker Asker) *Discoverer {
	return &Discoverer{lister: lister, asker: asker}
}

// Ensure resolves every spec whose role is not yet cached in store. Fields
// are listed at most once. It reports whether store was changed.
func (d *Discoverer) Ensure(ctx context.Context, store Store, specs []models.FieldSpec) (bool, error) {
	changed := false

	for _, spec := range specs {
		if id := store.FieldID(spec.Role); id != "" {
			logging.Debug("using cached field id", "role", spec.Role, "field_id", id)
			continue
		}

		field, err := d.Resolve(ctx, spec)
		if err != nil {
			if errors.Is(err, ErrNoMatch) && spec.Optional {
				logging.Warn("skipping optional field", "role", spec.Role, "error", err)
				continue
			}
			return changed, err
		}
		if field.ID == "" {
			logging.Info("optional field skipped by user", "role", spec.Role)
			continue
		}

		store.SetFieldID(spec.Role, field.ID)
		changed = true

		logging.Info("discovered field",
			"role", spec.Role,
			"name", field.Name,
			"field_id", field.ID)
	}

	return changed, nil
}

// Resolve finds the field for spec, asking for a new label when the current
// one matches nothing. A zero Field means an optional field was skipped.
func (d *Discoverer) Resolve(ctx context.Context, spec models.FieldSpec) (models.Field, error) {
	fields, err := d.list(ctx)
	if err != nil {
		return models.Field{}, err
	}

	label := spec.Label
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if strings.TrimSpace(label) != "" {
			matches := Match(fields, label)

			logging.Debug("matched field label",
				"role", spec.Role,
				"label", label,
				"matches", len(matches))

			if len(matches) == 1 {
				return matches[0], nil
			}
			if len(matches) > 1 {
				return d.asker.ChooseField(label, matches)
			}
		}

		if attempt == MaxAttempts {
			break
		}

		label, err = d.asker.AskLabel(spec, attempt)
		if err != nil {
			return models.Field{}, err
		}
		if strings.TrimSpace(label) == "" && spec.Optional {
			return models.Field{}, nil
		}
	}

	return models.Field{}, fmt.Errorf("%w %q after %d attempts", ErrNoMatch, spec.Label, MaxAttempts)
}

// Search lists fields whose name contains term, or every field when term is
// empty, sorted by name.
func (d *Discoverer) Search(ctx context.Context, term string) ([]models.Field, error) {
	fields, err := d.list(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Field
	needle := strings.ToLower(strings.TrimSpace(term))
	for _, f := range fields {
		if needle == "" || strings.Contains(strings.ToLower(f.Name), needle) || strings.EqualFold(f.ID, needle) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (d *Discoverer) list(ctx context.Context) ([]models.Field, error) {
	if d.fields != nil {
		return d.fields, nil
	}
	fields, err := d.lister.ListFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields for discovery: %w", err)
	}
	d.fields = fields
	return fields, nil
}
