package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	AgentBackendWebhook = "webhook"
	AgentBackendVertex  = "vertex"

	PropertiesBackendFile      = "file"
	PropertiesBackendFirestore = "firestore"

	SecretSourceEnv           = "env"
	SecretSourceSecretManager = "secretmanager"

	AuthModeFirebase = "firebase"
	AuthModeNone     = "none"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	ProjectID string `envconfig:"PROJECTID"`
	Region    string `envconfig:"REGION"`
	LogLevel  string `envconfig:"LOGLEVEL" default:"info"`

	RenderKey           string `envconfig:"RENDERKEY"`
	RenderKeyCiphertext string `envconfig:"RENDERKEYCIPHERTEXT"`
	KMSKeyName          string `envconfig:"KMSKEYNAME"`
	AuthMode            string `envconfig:"AUTHMODE" default:"none"`
	SecretSource        string `envconfig:"SECRETSOURCE" default:"env"`

	AgentBackend         string `envconfig:"AGENTBACKEND" default:"webhook"`
	AgentWebhookURL      string `envconfig:"AGENTWEBHOOKURL"`
	PropertiesWebhookURL string `envconfig:"PROPERTIESWEBHOOKURL"`
	VertexModel          string `envconfig:"VERTEXMODEL" default:"gemini-2.5-flash"`

	PropertiesBackend string `envconfig:"PROPERTIESBACKEND" default:"file"`
	PropertiesFile    string `envconfig:"PROPERTIESFILE" default:"ga_properties.json"`
	DashboardDir      string `envconfig:"DASHBOARDDIR" default:"dashboards"`

	HTTPTimeout       time.Duration `envconfig:"HTTPTIMEOUT" default:"180s"`
	PropertiesTimeout time.Duration `envconfig:"PROPERTIESTIMEOUT" default:"30s"`

	SelectionCookie string        `envconfig:"SELECTIONCOOKIE" default:"ga_property"`
	SelectionMaxAge time.Duration `envconfig:"SELECTIONMAXAGE" default:"8760h"`
}

// New loads an optional .env file, then reads the environment.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c *Config) validate() error {
	c.AgentBackend = strings.ToLower(strings.TrimSpace(c.AgentBackend))
	c.PropertiesBackend = strings.ToLower(strings.TrimSpace(c.PropertiesBackend))
	c.SecretSource = strings.ToLower(strings.TrimSpace(c.SecretSource))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))

	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"AGENTBACKEND", c.AgentBackend, []string{AgentBackendWebhook, AgentBackendVertex}},
		{"PROPERTIESBACKEND", c.PropertiesBackend, []string{PropertiesBackendFile, PropertiesBackendFirestore}},
		{"SECRETSOURCE", c.SecretSource, []string{SecretSourceEnv, SecretSourceSecretManager}},
		{"AUTHMODE", c.AuthMode, []string{AuthModeFirebase, AuthModeNone}},
	}
	for _, chk := range checks {
		if !contains(chk.allowed, chk.value) {
			return fmt.Errorf("config: %s must be one of %s, got %q", chk.name, strings.Join(chk.allowed, "|"), chk.value)
		}
	}

	needsProject := c.PropertiesBackend == PropertiesBackendFirestore ||
		c.SecretSource == SecretSourceSecretManager ||
		c.AgentBackend == AgentBackendVertex
	if needsProject && c.ProjectID == "" {
		return fmt.Errorf("config: PROJECTID is required for the configured backends")
	}
	if c.AgentBackend == AgentBackendVertex && c.Region == "" {
		return fmt.Errorf("config: REGION is required when AGENTBACKEND=vertex")
	}
	if c.RenderKeyCiphertext != "" && c.KMSKeyName == "" {
		return fmt.Errorf("config: KMSKEYNAME is required to decrypt RENDERKEYCIPHERTEXT")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
