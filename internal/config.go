package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/showcase/internal/source"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	GitHub GitHubConfig      `yaml:"github"`
	Local  LocalConfig       `yaml:"local"`
	Output OutputConfig      `yaml:"output"`
	Sync   SyncConfig        `yaml:"sync"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.GitHub.Validate(); err != nil {
		return err
	}
	if err := c.Local.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" env:"SHOWCASE_PORT"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GitHubConfig holds the remote source settings. The token is only
// required by commands that talk to GitHub.
type GitHubConfig struct {
	Owner        string `yaml:"owner" env:"GITHUB_OWNER"`
	Token        string `yaml:"token" env:"GITHUB_TOKEN"`
	APIBase      string `yaml:"api_base"`
	DocumentPath string `yaml:"document_path"`
	MaxPages     int    `yaml:"max_pages"`
	MaxRetries   uint   `yaml:"max_retries"`
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DocumentPath, validation.Required),
		validation.Field(&c.MaxPages, validation.Required, validation.Min(1)),
	)
}

// LocalConfig locates the local document directories under Root.
type LocalConfig struct {
	Root      string `yaml:"root" env:"SHOWCASE_ROOT"`
	FilesDir  string `yaml:"files_dir"`
	DraftsDir string `yaml:"drafts_dir"`
	Prefix    string `yaml:"prefix"`
}

// Validate validates the local source configuration.
func (c *LocalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.FilesDir, validation.Required),
		validation.Field(&c.DraftsDir, validation.Required),
		validation.Field(&c.Prefix, validation.Required),
	)
}

// OutputConfig locates published artifacts. Dataset and Order are
// relative to the local root.
type OutputConfig struct {
	Dataset   string `yaml:"dataset" env:"SHOWCASE_DATASET"`
	Order     string `yaml:"order"`
	ImagesDir string `yaml:"images_dir"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dataset, validation.Required),
		validation.Field(&c.Order, validation.Required),
	)
}

// SyncConfig tunes aggregation and remote writes.
type SyncConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	WriteDelay    time.Duration `yaml:"write_delay"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(32)),
		validation.Field(&c.FetchTimeout, validation.Required),
		validation.Field(&c.WriteDelay, validation.Min(time.Duration(0))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token" env:"SHOWCASE_API_TOKEN"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		GitHub: GitHubConfig{
			APIBase:      source.DefaultAPIBase,
			DocumentPath: source.DefaultDocumentPath,
			MaxPages:     source.DefaultMaxPages,
			MaxRetries:   3,
		},
		Local: LocalConfig{
			Root:      ".",
			FilesDir:  "portfolio",
			DraftsDir: "portfolio-drafts",
			Prefix:    source.DefaultPrefix,
		},
		Output: OutputConfig{
			Dataset:   "data/projects.json",
			Order:     "data/portfolio-order.json",
			ImagesDir: "public/portfolio",
		},
		Sync: SyncConfig{
			Concurrency:   4,
			FetchTimeout:  15 * time.Second,
			WriteDelay:    500 * time.Millisecond,
			WatchDebounce: 300 * time.Millisecond,
		},
		SQLite: SQLiteConfig{
			Path: "./showcase.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
