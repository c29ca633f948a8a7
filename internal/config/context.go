package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Context represents one Azure target: a subscription plus the resource
// group and region the BeEux fleet lives in.
type Context struct {
	Subscription   string `yaml:"subscription"`              // Subscription ID
	Tenant         string `yaml:"tenant,omitempty"`          // Tenant ID (optional)
	ResourceGroup  string `yaml:"resource_group"`            // Fleet resource group
	Location       string `yaml:"location"`                  // Azure region
	AdminUser      string `yaml:"admin_user,omitempty"`      // VM admin username
	SSHKeyPath     string `yaml:"ssh_key_path,omitempty"`    // Public key for provisioning
	StorageAccount string `yaml:"storage_account,omitempty"` // Fleet storage account
	FileShare      string `yaml:"file_share,omitempty"`      // CIFS share name
}

// Defaults represents default settings
type Defaults struct {
	Output      string `yaml:"output,omitempty"`      // table, json
	Interactive bool   `yaml:"interactive,omitempty"` // Default interactive mode
	Manifest    string `yaml:"manifest,omitempty"`    // Default fleet manifest path
}

// File represents the main configuration file (~/.beectl.yaml)
type File struct {
	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`
	Defaults       *Defaults           `yaml:"defaults,omitempty"`
}

// Path returns the config file path (~/.beectl.yaml)
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".beectl.yaml"
	}
	return filepath.Join(home, ".beectl.yaml")
}

// Load reads the configuration from ~/.beectl.yaml
func Load() (*File, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return &File{
				Contexts: make(map[string]*Context),
				Defaults: &Defaults{Output: "table"},
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	if cfg.Defaults == nil {
		cfg.Defaults = &Defaults{Output: "table"}
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.beectl.yaml
func Save(cfg *File) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetCurrentContext returns the current active context
func GetCurrentContext() (*Context, string, error) {
	cfg, err := Load()
	if err != nil {
		return nil, "", err
	}

	if cfg.CurrentContext == "" {
		return nil, "", nil
	}

	ctx, ok := cfg.Contexts[cfg.CurrentContext]
	if !ok {
		return nil, "", fmt.Errorf("context %q not found", cfg.CurrentContext)
	}

	return ctx, cfg.CurrentContext, nil
}

// SetCurrentContext sets the current active context
func SetCurrentContext(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}

	cfg.CurrentContext = name
	return Save(cfg)
}

// AddContext adds or updates a context
func AddContext(name string, ctx *Context) error {
	if ctx.Subscription == "" {
		return fmt.Errorf("context %q needs a subscription ID", name)
	}
	if ctx.ResourceGroup == "" {
		return fmt.Errorf("context %q needs a resource group", name)
	}

	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.Contexts[name] = ctx
	return Save(cfg)
}

// DeleteContext removes a context
func DeleteContext(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	delete(cfg.Contexts, name)

	// Clear current context if it was the deleted one
	if cfg.CurrentContext == name {
		cfg.CurrentContext = ""
	}

	return Save(cfg)
}

// ListContexts returns all configured contexts
func ListContexts() (map[string]*Context, string, error) {
	cfg, err := Load()
	if err != nil {
		return nil, "", err
	}

	return cfg.Contexts, cfg.CurrentContext, nil
}
