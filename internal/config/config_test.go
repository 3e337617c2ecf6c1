package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads. Viper ignores empty values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SLACHECK_SITE_URL",
		"SLACHECK_EMAIL",
		"SLACHECK_AUTH_MODE",
		"SLACHECK_API_TOKEN",
		"JIRA_TOKEN",
	} {
		t.Setenv(name, "")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	saved := &Settings{
		SiteURL:  "https://example.atlassian.net",
		Email:    "ops@example.com",
		AuthMode: AuthBasic,
		Fields: map[string]string{
			"health_plan": "customfield_10151",
			"category":    "customfield_10356",
		},
	}
	require.NoError(t, Save(path, saved))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, saved.SiteURL, loaded.SiteURL)
	assert.Equal(t, saved.Email, loaded.Email)
	assert.Equal(t, saved.Fields, loaded.Fields)
	assert.Equal(t, AuthBasic, loaded.Mode())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveNeverPersistsToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLACHECK_API_TOKEN", "super-secret-token-value")
	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings, err := Load(path)
	require.NoError(t, err)
	settings.SiteURL = "https://example.atlassian.net"
	settings.SetFieldID("category", "customfield_10356")

	require.Equal(t, "super-secret-token-value", EnvToken())
	require.NoError(t, Save(path, settings))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-token-value")
	assert.NotContains(t, string(raw), "token")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	settings, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Empty(t, settings.SiteURL)
	assert.Empty(t, settings.FieldID("health_plan"))
	assert.Equal(t, AuthBasic, settings.Mode())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, Save(path, &Settings{SiteURL: "https://old.atlassian.net", Email: "old@example.com"}))

	t.Setenv("SLACHECK_SITE_URL", "new.atlassian.net/")

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://new.atlassian.net", settings.SiteURL)
	assert.Equal(t, "old@example.com", settings.Email)
}

func TestSaveKeepsFileValuesUnderEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, Save(path, &Settings{SiteURL: "https://old.atlassian.net", Email: "old@example.com"}))

	t.Setenv("SLACHECK_SITE_URL", "new.atlassian.net/")
	t.Setenv("SLACHECK_AUTH_MODE", "bearer")

	settings, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, AuthBearer, settings.AuthMode)
	settings.SetFieldID("category", "customfield_10356")
	require.NoError(t, Save(path, settings))

	clearEnv(t)
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://old.atlassian.net", reloaded.SiteURL)
	assert.Equal(t, "old@example.com", reloaded.Email)
	assert.Empty(t, reloaded.AuthMode)
	assert.Equal(t, "customfield_10356", reloaded.FieldID("category"))
}

func TestSaveWithoutFileDropsEnvValues(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	t.Setenv("SLACHECK_SITE_URL", "env.atlassian.net")
	t.Setenv("SLACHECK_EMAIL", "env@example.com")

	settings, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.atlassian.net", settings.SiteURL)
	require.NoError(t, Save(path, settings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "env.atlassian.net")
	assert.NotContains(t, string(data), "env@example.com")
}

func TestSaveKeepsValuesChangedAfterLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	t.Setenv("SLACHECK_EMAIL", "env@example.com")

	settings, err := Load(path)
	require.NoError(t, err)
	settings.Email = "typed@example.com"
	require.NoError(t, Save(path, settings))

	clearEnv(t)
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "typed@example.com", reloaded.Email)
}

func TestLoadRejectsUnknownAuthMode(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site_url: https://x.atlassian.net\nauth_mode: kerberos\n"), 0o600))

	settings, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, settings)
}

func TestNormalizeSiteURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Bare host", in: "acme.atlassian.net", want: "https://acme.atlassian.net"},
		{name: "Trailing slash", in: "https://acme.atlassian.net/", want: "https://acme.atlassian.net"},
		{name: "Whitespace", in: "  https://jira.acme.org  ", want: "https://jira.acme.org"},
		{name: "Explicit http", in: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "Empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSiteURL(tt.in))
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{
			name:    "All fields present",
			creds:   Credentials{SiteURL: "https://jira.example.com", Email: "a@example.com", Token: "t"},
			wantErr: false,
		},
		{
			name:    "Missing site URL",
			creds:   Credentials{Email: "a@example.com", Token: "t"},
			wantErr: true,
		},
		{
			name:    "Missing email with basic auth",
			creds:   Credentials{SiteURL: "https://jira.example.com", Token: "t"},
			wantErr: true,
		},
		{
			name:    "Bearer auth needs no email",
			creds:   Credentials{SiteURL: "https://jira.example.com", Token: "t", AuthMode: AuthBearer},
			wantErr: false,
		},
		{
			name:    "Missing token",
			creds:   Credentials{SiteURL: "https://jira.example.com", Email: "a@example.com"},
			wantErr: true,
		},
		{
			name:    "Site URL without host",
			creds:   Credentials{SiteURL: "not a url", Email: "a@example.com", Token: "t"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.creds)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
