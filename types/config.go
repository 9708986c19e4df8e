package types

type OutputStyle int

const (
	StyleHuman OutputStyle = iota
	StyleHumanVerbose
	StyleMachineJSON
)

type Config struct {
	Azure    Azure    `yaml:"azure"`
	Remote   Remote   `yaml:"remote"`
	Storage  Storage  `yaml:"storage"`
	Workflow Workflow `yaml:"workflow"`
	Metrics  Metrics  `yaml:"metrics,omitempty"`
	Schedule Schedule `yaml:"schedule,omitempty"`
}

type Azure struct {
	ResourceGroup string   `yaml:"resource_group"`
	VMName        string   `yaml:"vm_name"`
	VMSSName      string   `yaml:"vmss_name"`
	CLI           string   `yaml:"cli,omitempty"`
	Shell         []string `yaml:"shell,omitempty"` // argv prefix for compound CLI text, e.g. ["powershell", "-Command"]
	VerboseCLI    bool     `yaml:"verbose_cli,omitempty"`
}

type Remote struct {
	User       string `yaml:"user,omitempty"`
	KeyPath    string `yaml:"key_path"`
	IPFile     string `yaml:"ip_file"`
	Port       int    `yaml:"port,omitempty"`
	KnownHosts string `yaml:"known_hosts,omitempty"` // default ~/.ssh/known_hosts
	// Skip host key verification when known_hosts is not set. Opt-in only.
	InsecureIgnoreHostKey bool   `yaml:"insecure_ignore_host_key,omitempty"`
	ScriptDir             string `yaml:"script_dir,omitempty"`
	ScaleSetScript        string `yaml:"scale_set_script,omitempty"`
	JumpboxScript         string `yaml:"jumpbox_script,omitempty"`
}

type Storage struct {
	Backend         string `yaml:"backend,omitempty"` // "azblob" or "s3"
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	Container       string `yaml:"container,omitempty"`
	Key             string `yaml:"key,omitempty"`
	LocalPath       string `yaml:"local_path,omitempty"`
}

type Workflow struct {
	// AwaitUpload joins the parameter upload before remote processing starts.
	// Pointer so an omitted key can default to true.
	AwaitUpload *bool  `yaml:"await_upload,omitempty"`
	LogRoot     string `yaml:"log_root,omitempty"`
}

type Metrics struct {
	PushgatewayURL string `yaml:"pushgateway_url,omitempty"`
	Job            string `yaml:"job,omitempty"`
}

type Schedule struct {
	Cron       string `yaml:"cron,omitempty"`
	DelayHours int    `yaml:"delay_hours,omitempty"`
}

// StorageCredentials mirrors the azure_storage_info.json file kept next to
// the processing software.
type StorageCredentials struct {
	ConnectionString string `json:"azure_storage_connection_string"`
	ContainerName    string `json:"container_name"`
}

type TargetKind string

const (
	TargetVM       TargetKind = "vm"
	TargetScaleSet TargetKind = "vmss"
)

// InfrastructureTarget names a compute resource the workflow starts and deallocates.
type InfrastructureTarget struct {
	ResourceGroup string
	Name          string
	Kind          TargetKind
}

func (c *Config) Jumpbox() InfrastructureTarget {
	return InfrastructureTarget{ResourceGroup: c.Azure.ResourceGroup, Name: c.Azure.VMName, Kind: TargetVM}
}

func (c *Config) ScaleSet() InfrastructureTarget {
	return InfrastructureTarget{ResourceGroup: c.Azure.ResourceGroup, Name: c.Azure.VMSSName, Kind: TargetScaleSet}
}

func (c *Config) ShouldAwaitUpload() bool {
	return c.Workflow.AwaitUpload == nil || *c.Workflow.AwaitUpload
}
