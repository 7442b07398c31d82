package packager

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"text/template"

	"github.com/HerbHall/plcbridge/internal/jsondoc"
)

// TypesManifest lists the SFC target and adapter types and their jar locations.
const TypesManifest = "include_types.json"

// CoreModule is the SFC runtime, required by every installation.
const CoreModule = "sfc-main"

type typeManifest struct {
	Targets  map[string]typeDef `json:"Targets"`
	Adapters map[string]typeDef `json:"Adapters"`
}

type typeDef struct {
	JarFiles []string `json:"JarFiles"`
}

// ModuleList returns the SFC modules an installation downloads: CoreModule,
// then the module of every target type, then of every adapter type, each
// section in key order. Duplicates are kept.
func ModuleList(fsys fs.FS) ([]string, error) {
	data, err := fs.ReadFile(fsys, TypesManifest)
	if err != nil {
		return nil, fmt.Errorf("read module manifest: %w", err)
	}
	var m typeManifest
	if err := jsondoc.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TypesManifest, err)
	}

	modules := []string{CoreModule}
	for _, section := range []struct {
		name  string
		types map[string]typeDef
	}{
		{"Targets", m.Targets},
		{"Adapters", m.Adapters},
	} {
		keys := make([]string, 0, len(section.types))
		for k := range section.types {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			jars := section.types[k].JarFiles
			if len(jars) == 0 {
				return nil, fmt.Errorf("%s: %s.%s has no JarFiles", TypesManifest, section.name, k)
			}
			modules = append(modules, moduleName(jars[0]))
		}
	}
	return modules, nil
}

// moduleName reduces a jar location such as ${SFC_DEPLOYMENT_DIR}/s7/lib to "s7".
func moduleName(jarPath string) string {
	s := strings.ReplaceAll(jarPath, "${SFC_DEPLOYMENT_DIR}/", "")
	return strings.ReplaceAll(s, "/lib", "")
}

const installShTemplate = `#!/bin/bash
set -e
wget {{.BaseURL}}/v{{.Version}}/{{braces .Modules ".tar.gz" false}}
for file in *.tar.gz; do
  tar -xf "$file"
  rm "$file"
done
`

const installBatTemplate = "curl -LO {{.BaseURL}}/v{{.Version}}/{{braces .Modules \".tar.gz\" true}}\r\n" +
	"FOR %%i IN (*.tar.gz) DO tar -xf %%i\r\n"

const runnerBatTemplate = "@ECHO OFF\r\n" +
	"SET SFC_DEPLOYMENT_DIR=%cd%\r\n" +
	"sfc-main\\bin\\sfc-main.bat -config %SFC_DEPLOYMENT_DIR%\\{{.ConfigFile}}\r\n"

// Script is one rendered installer or runner.
type Script struct {
	Name string
	Text string
	Mode fs.FileMode
}

type scriptData struct {
	BaseURL    string
	Version    string
	Modules    []string
	ConfigFile string
}

// braces renders modules as a brace list understood by bash and curl:
// {a,b}.tar.gz for bash (suffix outside), {a.tar.gz,b.tar.gz} for curl
// (suffix inside). A single module is written without braces.
func braces(modules []string, suffix string, inside bool) string {
	if len(modules) == 1 {
		return modules[0] + suffix
	}
	if inside {
		parts := make([]string, len(modules))
		for i, m := range modules {
			parts[i] = m + suffix
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return "{" + strings.Join(modules, ",") + "}" + suffix
}

// RenderScripts renders the shell installer, the batch installer and the batch runner.
func RenderScripts(baseURL, version string, modules []string, configFile string) ([]Script, error) {
	data := scriptData{BaseURL: baseURL, Version: version, Modules: modules, ConfigFile: configFile}
	specs := []struct {
		name string
		tmpl string
		mode fs.FileMode
	}{
		{InstallScript, installShTemplate, 0o755},
		{InstallBatch, installBatTemplate, 0o644},
		{RunnerBatch, runnerBatTemplate, 0o644},
	}

	scripts := make([]Script, 0, len(specs))
	for _, s := range specs {
		text, err := render(s.name, s.tmpl, data)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, Script{Name: s.name, Text: text, Mode: s.mode})
	}
	return scripts, nil
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{"braces": braces}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", name, err)
	}
	return b.String(), nil
}
