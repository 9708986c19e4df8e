package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fewx/gfsproc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData(dir string) ConfigData {
	return ConfigData{
		ResourceGroup:   "fewx-rg",
		VMName:          "fewx-jumpbox",
		VMSSName:        "fewx-vmss",
		KeyPath:         "~/.ssh/id_rsa",
		IPFile:          "vm_ip.txt",
		CredentialsFile: filepath.Join(dir, "azure_storage_info.json"),
	}
}

func TestRenderConfigTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTpl(ConfigTemplate, &buf, sampleData("/opt/fewx")))

	out := buf.String()
	assert.Contains(t, out, "resource_group: fewx-rg")
	assert.Contains(t, out, "vmss_name: fewx-vmss")
	assert.Contains(t, out, "credentials_file: /opt/fewx/azure_storage_info.json")
}

func TestWrittenConfigPassesValidation(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "gfsproc.yml")

	require.NoError(t, WriteTpl(ConfigTemplate, outPath, sampleData(dir)))

	cfg, err := config.LoadConfig(outPath)
	require.NoError(t, err)
	assert.Equal(t, "fewx-jumpbox", cfg.Azure.VMName)
	assert.True(t, cfg.ShouldAwaitUpload())
	assert.Equal(t, ".gfsproc/logs", cfg.Workflow.LogRoot)
}

func TestRenderMissingTemplate(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "x")
	err := WriteTpl("files/nope.tmpl", outPath, nil)
	assert.Error(t, err)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}
