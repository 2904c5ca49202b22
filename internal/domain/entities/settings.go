package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultMaxRetries     = 3
	defaultConcurrency    = 4
)

// Settings is the top-level configuration for refupdate.
type Settings struct {
	Providers      []ProviderConfig `yaml:"providers"`
	Remote         RemoteOptions    `yaml:"remote"`
	Ignore         []IgnoreConfig   `yaml:"ignore"`
	Advisories     []string         `yaml:"advisories"`
	RaiseOnIgnored bool             `yaml:"raise_on_ignored"`
	Concurrency    int              `yaml:"concurrency"`
}

// ProviderConfig holds the credentials for one Git hosting provider.
type ProviderConfig struct {
	Type    string `yaml:"type"`     // "github", "gitlab", "azuredevops", "bitbucket", "codecommit"
	Token   string `yaml:"token"`    // Inline, ${ENV_VAR}, or file path
	BaseURL string `yaml:"base_url"` // self-hosted API endpoint, optional
}

// RemoteOptions configures every ref source adapter.
type RemoteOptions struct {
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryStatusCodes []int         `yaml:"retry_status_codes"`
}

// IgnoreConfig mirrors a Dependabot "ignore" entry.
type IgnoreConfig struct {
	DependencyName string   `yaml:"dependency-name"`
	Versions       []string `yaml:"versions"`
	UpdateTypes    []string `yaml:"update-types"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// DefaultSettings is used when no configuration file exists.
func DefaultSettings() *Settings {
	settings := &Settings{}
	settings.applyDefaults()
	return settings
}

// NewSettings reads and parses a configuration file, expanding environment
// variables and resolving token file paths.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	for i := range settings.Providers {
		settings.Providers[i].Token = resolveToken(settings.Providers[i].Token)
	}
	settings.applyDefaults()

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".refupdate.yaml",
		".refupdate.yml",
		"refupdate.yaml",
		"refupdate.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// IgnoreRules converts the Dependabot-style entries into domain rules.
func (s *Settings) IgnoreRules() ([]IgnoreRule, error) {
	rules := make([]IgnoreRule, 0, len(s.Ignore))
	for _, entry := range s.Ignore {
		rule := IgnoreRule{DependencyName: entry.DependencyName}
		for _, expression := range entry.Versions {
			versionRange, err := ParseVersionRange(expression)
			if err != nil {
				return nil, fmt.Errorf("ignore rule for %q: %w", entry.DependencyName, err)
			}
			rule.Versions = append(rule.Versions, versionRange)
		}
		for _, raw := range entry.UpdateTypes {
			updateType, err := ParseUpdateType(raw)
			if err != nil {
				return nil, fmt.Errorf("ignore rule for %q: %w", entry.DependencyName, err)
			}
			rule.UpdateTypes = append(rule.UpdateTypes, updateType)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Token returns the configured token for a provider type, falling back to
// the provider's well-known environment variables.
func (s *Settings) Token(providerType string) string {
	for _, p := range s.Providers {
		if p.Type == providerType && p.Token != "" {
			return p.Token
		}
	}
	return TokenFromEnv(providerType)
}

// TokenFromEnv reads the token CI systems and provider CLIs usually export.
func TokenFromEnv(providerType string) string {
	for _, name := range tokenEnvVars(providerType) {
		if token := os.Getenv(name); token != "" {
			return token
		}
	}
	return ""
}

// TokenEnvHint names the variables TokenFromEnv looks at, for log messages.
func TokenEnvHint(providerType string) string {
	names := tokenEnvVars(providerType)
	if len(names) == 0 {
		return "<unknown provider>"
	}
	return strings.Join(names, " or ")
}

func tokenEnvVars(providerType string) []string {
	switch providerType {
	case ProviderGitHub:
		return []string{"GITHUB_TOKEN", "GH_TOKEN"}
	case ProviderAzureDevOps:
		return []string{"AZURE_DEVOPS_EXT_PAT", "SYSTEM_ACCESSTOKEN"}
	case ProviderGitLab:
		return []string{"GITLAB_TOKEN", "GL_TOKEN"}
	case ProviderBitbucket:
		return []string{"BITBUCKET_TOKEN"}
	default:
		return nil
	}
}

// Provider returns the configuration for a provider type with its token
// resolved. Unconfigured providers get an entry carrying the environment token.
func (s *Settings) Provider(providerType string) ProviderConfig {
	for _, p := range s.Providers {
		if p.Type == providerType {
			p.Token = s.Token(providerType)
			return p
		}
	}
	return ProviderConfig{Type: providerType, Token: TokenFromEnv(providerType)}
}

func (s *Settings) applyDefaults() {
	if s.Remote.ConnectTimeout <= 0 {
		s.Remote.ConnectTimeout = defaultConnectTimeout
	}
	if s.Remote.ReadTimeout <= 0 {
		s.Remote.ReadTimeout = defaultReadTimeout
	}
	if s.Remote.MaxRetries <= 0 {
		s.Remote.MaxRetries = defaultMaxRetries
	}
	if len(s.Remote.RetryStatusCodes) == 0 {
		s.Remote.RetryStatusCodes = []int{429, 500, 502, 503, 504}
	}
	if s.Concurrency <= 0 {
		s.Concurrency = defaultConcurrency
	}
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values.
func validate(settings *Settings) error {
	for i, p := range settings.Providers {
		if p.Type == "" {
			return fmt.Errorf("providers[%d].type is required", i)
		}
	}

	for i, entry := range settings.Ignore {
		if entry.DependencyName == "" {
			return fmt.Errorf("ignore[%d].dependency-name is required", i)
		}
	}

	if _, err := settings.IgnoreRules(); err != nil {
		return err
	}

	return nil
}
