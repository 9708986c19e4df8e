package templates

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed files/*
var TplFS embed.FS

// ConfigTemplate is the starter gfsproc.yml written by `gfsproc init`.
const ConfigTemplate = "files/gfsproc.yml.tmpl"

// ConfigData fills ConfigTemplate.
type ConfigData struct {
	ResourceGroup   string
	VMName          string
	VMSSName        string
	KeyPath         string
	IPFile          string
	CredentialsFile string
}

// WriteTpl loads tplName from TplFS, executes it with data, and writes to outPath
func WriteTpl(tplName, outPath string, data any) error {
	t, err := parse(tplName)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outPath, err)
	}
	defer f.Close()

	return t.Execute(f, data)
}

// RenderTpl executes tplName from TplFS into w.
func RenderTpl(tplName string, w io.Writer, data any) error {
	t, err := parse(tplName)
	if err != nil {
		return err
	}
	return t.Execute(w, data)
}

func parse(tplName string) (*template.Template, error) {
	t, err := template.New(filepath.Base(tplName)).Option("missingkey=error").ParseFS(TplFS, tplName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", tplName, err)
	}
	return t, nil
}
