package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Decks: DecksConfig{
			IncludeStarter: true,
			CacheDirectory: filepath.Join(".jmemory", "cache"),
		},
		Storage: StorageConfig{
			Local: LocalStorageConfig{
				Driver: "sqlite",
				Path:   filepath.Join(".jmemory", "mastery.db"),
			},
			Remote: RemoteStorageConfig{
				Database: DatabaseConfig{
					Host:     "localhost",
					Port:     3306,
					Database: "jmemory",
					Username: "user",
				},
				RetryAttempts: 3,
			},
			SaveDelay: 1200 * time.Millisecond,
		},
		Glyph: GlyphConfig{
			Resolution: 64,
			Threshold:  0.48,
			CanvasSize: 600,
			BrushWidth: 14,
		},
		Session: SessionConfig{
			RecentHistorySize: 10,
			Categories:        []string{"kanji", "words"},
		},
		Server: ServerConfig{
			Port:               8080,
			CORS:               CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
			SessionIdleTimeout: 30 * time.Minute,
		},
		Outputs: OutputsConfig{
			ReportDirectory: "outputs",
		},
	}
}

func TestConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		useExplicitPath   bool
		env               map[string]string
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name:          "no config file uses defaults",
			configContent: "",
			want:          defaultConfig,
		},
		{
			name: "valid config file with custom values",
			configContent: `decks:
  directories: [custom/decks]
  include_starter: false
storage:
  local:
    driver: yaml
    path: custom/mastery
  save_delay: 2s
session:
  recent_history_size: 8
  categories: [kanji]
`,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Decks.Directories = []string{"custom/decks"}
				cfg.Decks.IncludeStarter = false
				cfg.Storage.Local = LocalStorageConfig{Driver: "yaml", Path: "custom/mastery"}
				cfg.Storage.SaveDelay = 2 * time.Second
				cfg.Session.RecentHistorySize = 8
				cfg.Session.Categories = []string{"kanji"}
				return cfg
			},
		},
		{
			name: "explicit config file path with secrets from the environment",
			configContent: `storage:
  remote:
    driver: http
    http:
      base_url: https://example.supabase.co/rest/v1
`,
			useExplicitPath: true,
			env: map[string]string{
				"JMEMORY_REMOTE_API_KEY": "remote-key",
				"JMEMORY_JWT_SECRET":     "jwt-secret",
				"JMEMORY_DB_PASSWORD":    "db-password",
			},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Storage.Remote.Driver = "http"
				cfg.Storage.Remote.HTTP = HTTPStorageConfig{
					BaseURL: "https://example.supabase.co/rest/v1",
					APIKey:  "remote-key",
				}
				cfg.Storage.Remote.Database.Password = "db-password"
				cfg.Auth.JWTSecret = "jwt-secret"
				return cfg
			},
		},
		{
			name: "invalid YAML format",
			configContent: `decks:
  directories: [custom
  invalid yaml format here [[[
`,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "invalid values",
			configContent: `storage:
  local:
    driver: bolt
glyph:
  threshold: 1.5
session:
  categories: [grammar]
`,
			wantErrorContains: []string{
				"invalid configuration",
				"driver must be one of [sqlite yaml]",
				"threshold must be 1 or less",
				"categories[0] must be one of [kanji words]",
			},
		},
		{
			name: "http remote without a base url",
			configContent: `storage:
  remote:
    driver: http
`,
			wantErrorContains: []string{
				"storage.remote.http.base_url is required for the http remote storage driver",
			},
		},
		{
			name: "missing template file",
			configContent: `templates:
  progress_report_template: /non/existent/report.md.go.tmpl
`,
			wantErrorContains: []string{
				"templates.progress_report_template must be an existing and readable file",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			var configPath string
			if tt.useExplicitPath {
				configPath = filepath.Join(tempDir, "jmemory.yml")
				require.NoError(t, os.WriteFile(configPath, []byte(tt.configContent), 0644))
			} else {
				if tt.configContent != "" {
					require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(tt.configContent), 0644))
				}
				t.Chdir(tempDir)
			}

			loader, err := NewConfigLoader(configPath)
			require.NoError(t, err)
			got, err := loader.Load()

			if len(tt.wantErrorContains) > 0 {
				require.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want(), got)
		})
	}
}
