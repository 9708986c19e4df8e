package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/fewx/gfsproc/types"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "gfsproc.yml"

	defaultCLI            = "az"
	defaultRemoteUser     = "azureadmin"
	defaultSSHPort        = 22
	defaultScriptDir      = "~/fewxops/software"
	defaultScaleSetScript = "vmss_process_gust_instant.sh"
	defaultJumpboxScript  = "jumpbox_process_gust_window.sh"
	defaultStorageBackend = "azblob"
	defaultBlobKey        = "parameters.json"
	defaultLocalParams    = "parameters.json"
	defaultLogRoot        = ".gfsproc/logs"
	defaultMetricsJob     = "gfsproc"
)

var allowedBackends = map[string]bool{
	"azblob": true,
	"s3":     true,
}

// Standard cron fields only; robfig's default parser.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func LoadConfig(filename string) (*types.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cfg types.Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	ApplyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("validation error in %s: %w", filename, err)
	}

	return &cfg, nil
}

// ApplyDefaults fills every optional field left empty in the file.
func ApplyDefaults(cfg *types.Config) {
	if cfg.Azure.CLI == "" {
		cfg.Azure.CLI = defaultCLI
	}
	if len(cfg.Azure.Shell) == 0 {
		cfg.Azure.Shell = DefaultShell(runtime.GOOS)
	}

	if cfg.Remote.User == "" {
		cfg.Remote.User = defaultRemoteUser
	}
	if cfg.Remote.Port == 0 {
		cfg.Remote.Port = defaultSSHPort
	}
	if cfg.Remote.ScriptDir == "" {
		cfg.Remote.ScriptDir = defaultScriptDir
	}
	if cfg.Remote.ScaleSetScript == "" {
		cfg.Remote.ScaleSetScript = defaultScaleSetScript
	}
	if cfg.Remote.JumpboxScript == "" {
		cfg.Remote.JumpboxScript = defaultJumpboxScript
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaultStorageBackend
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = defaultBlobKey
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = defaultLocalParams
	}

	if cfg.Workflow.LogRoot == "" {
		cfg.Workflow.LogRoot = defaultLogRoot
	}

	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = defaultMetricsJob
	}
}

// DefaultShell returns the argv prefix used to run compound CLI text.
func DefaultShell(goos string) []string {
	if goos == "windows" {
		return []string{"powershell", "-Command"}
	}
	return []string{"sh", "-c"}
}

func ValidateConfig(cfg *types.Config) error {
	var errs []string

	// --- Validate 'azure' section ---
	if cfg.Azure.ResourceGroup == "" {
		errs = append(errs, "field 'azure.resource_group' is required")
	}
	if cfg.Azure.VMName == "" {
		errs = append(errs, "field 'azure.vm_name' is required")
	}
	if cfg.Azure.VMSSName == "" {
		errs = append(errs, "field 'azure.vmss_name' is required")
	}

	// --- Validate 'remote' section ---
	if cfg.Remote.IPFile == "" {
		errs = append(errs, "field 'remote.ip_file' is required")
	}
	if cfg.Remote.KeyPath == "" {
		errs = append(errs, "field 'remote.key_path' is required")
	}
	if cfg.Remote.Port < 0 || cfg.Remote.Port > 65535 {
		errs = append(errs, fmt.Sprintf("field 'remote.port' out of range: %d", cfg.Remote.Port))
	}

	// --- Validate 'storage' section ---
	if !allowedBackends[cfg.Storage.Backend] {
		errs = append(errs, fmt.Sprintf("invalid storage backend %q; allowed backends are: %v", cfg.Storage.Backend, getAllowedBackendKeys()))
	}
	if cfg.Storage.Backend == "azblob" && cfg.Storage.CredentialsFile == "" {
		errs = append(errs, "field 'storage.credentials_file' is required for backend 'azblob'")
	}
	if cfg.Storage.Backend == "s3" && cfg.Storage.Container == "" {
		errs = append(errs, "field 'storage.container' is required for backend 's3'")
	}
	if strings.HasPrefix(cfg.Storage.Key, "/") {
		errs = append(errs, fmt.Sprintf("field 'storage.key' must not start with '/': %q", cfg.Storage.Key))
	}

	// --- Validate 'schedule' section ---
	if cfg.Schedule.Cron != "" {
		if _, err := cronParser.Parse(cfg.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Sprintf("field 'schedule.cron' is invalid: %v", err))
		}
	}
	if cfg.Schedule.DelayHours < 0 {
		errs = append(errs, "field 'schedule.delay_hours' cannot be negative")
	}

	if len(errs) > 0 {
		return errors.New("gfsproc configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// ParseCron parses a validated schedule expression.
func ParseCron(spec string) (cron.Schedule, error) {
	return cronParser.Parse(spec)
}

// LoadStorageCredentials reads the JSON credentials file holding the
// storage connection string and container name.
func LoadStorageCredentials(filename string) (*types.StorageCredentials, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage credentials %s: %w", filename, err)
	}

	var creds types.StorageCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse storage credentials %s: %w", filename, err)
	}

	if creds.ConnectionString == "" {
		return nil, fmt.Errorf("storage credentials %s: 'azure_storage_connection_string' is empty", filename)
	}
	if creds.ContainerName == "" {
		return nil, fmt.Errorf("storage credentials %s: 'container_name' is empty", filename)
	}
	return &creds, nil
}

// Helper to get sorted keys from allowedBackends for error messages
func getAllowedBackendKeys() []string {
	keys := make([]string, 0, len(allowedBackends))
	for k := range allowedBackends {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
