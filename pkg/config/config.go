// Package config resolves req's settings from config.json, REQ_* environment
// variables and built-in defaults, and prepares the templates root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/viper"

	"github.com/caiolrosa/req/pkg/storage"
)

const (
	// HomeEnv overrides the configuration directory.
	HomeEnv = "REQ_HOME"
	// EnvPrefix is the prefix of environment overrides, e.g. REQ_TIMEOUT.
	EnvPrefix = "REQ"

	KeyTemplatesDir   = "templates_dir"
	KeyEditor         = "editor"
	KeyTimeout        = "timeout"
	KeyDefaultProject = "default_project"

	DefaultProjectName = "default"
	DefaultTimeout     = 30 * time.Second
)

// Config is the resolved configuration of one run.
type Config struct {
	Home           string        // configuration directory
	ConfigFile     string        // file that was read, empty when none was found
	TemplatesDir   string        // storage root for projects
	Editor         string        // editor command, empty for $VISUAL/$EDITOR
	Timeout        time.Duration // HTTP request timeout
	DefaultProject string        // project used when none is given
}

// HomeDir returns $REQ_HOME, falling back to ~/.config/req.
func HomeDir() (string, error) {
	if path := os.Getenv(HomeEnv); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "req"), nil
}

// Load resolves the configuration into v. cfgFile, when set, replaces the
// config.json lookup in the home directory and must exist.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyTemplatesDir, filepath.Join(home, "templates"))
	v.SetDefault(KeyEditor, "")
	v.SetDefault(KeyTimeout, DefaultTimeout.String())
	v.SetDefault(KeyDefaultProject, DefaultProjectName)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(home)
		v.SetConfigType("json")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	timeout := v.GetDuration(KeyTimeout)
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid %s %q: must be a positive duration", KeyTimeout, v.GetString(KeyTimeout))
	}

	project := v.GetString(KeyDefaultProject)
	if err := storage.ValidateName(project); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyDefaultProject, err)
	}

	templatesDir, err := expandHome(v.GetString(KeyTemplatesDir))
	if err != nil {
		return nil, err
	}

	return &Config{
		Home:           home,
		ConfigFile:     v.ConfigFileUsed(),
		TemplatesDir:   templatesDir,
		Editor:         v.GetString(KeyEditor),
		Timeout:        timeout,
		DefaultProject: project,
	}, nil
}

// Filesystem returns the storage root as a billy filesystem.
func (c *Config) Filesystem() billy.Filesystem {
	return osfs.New(c.TemplatesDir)
}

// Init creates the templates root and the default project when they are
// missing. It is safe to run on every start.
func Init(c *Config, projects *storage.ProjectStore) error {
	if err := os.MkdirAll(c.TemplatesDir, 0755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}

	_, err := projects.Get(c.DefaultProject)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if _, err := projects.Create(c.DefaultProject); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("failed to create default project: %w", err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %s: %w", path, err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
