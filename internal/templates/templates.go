// Package templates bundles the CloudFormation templates for each deployment
// type and reads the parameters and outputs they declare.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed files/*.yaml
var files embed.FS

// ErrUnknownTemplate is returned by Load for a name that is not bundled.
var ErrUnknownTemplate = errors.New("unknown template")

// Template is a bundled CloudFormation template.
type Template struct {
	Name        string
	Body        string
	Description string
	Parameters  map[string]Parameter
	// Outputs lists the declared output keys in sorted order.
	Outputs []string
}

// Parameter is one declared template parameter.
type Parameter struct {
	Type        string  `yaml:"Type"`
	Default     *string `yaml:"Default"`
	Description string  `yaml:"Description"`
}

// Required reports whether the parameter has no default.
func (p Parameter) Required() bool {
	return p.Default == nil
}

// document is the part of a template read here. Resources and intrinsic
// function tags are left unparsed.
type document struct {
	Description string               `yaml:"Description"`
	Parameters  map[string]Parameter `yaml:"Parameters"`
	Outputs     map[string]yaml.Node `yaml:"Outputs"`
}

// Names returns the bundled template names.
func Names() []string {
	entries, err := fs.ReadDir(files, "files")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Load reads and parses a bundled template.
func Load(name string) (*Template, error) {
	body, err := files.ReadFile(path.Join("files", name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return Parse(name, body)
}

// Parse reads the parameters and outputs of a template body.
func Parse(name string, body []byte) (*Template, error) {
	var doc document
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	t := &Template{
		Name:        name,
		Body:        string(body),
		Description: doc.Description,
		Parameters:  doc.Parameters,
	}
	if t.Parameters == nil {
		t.Parameters = map[string]Parameter{}
	}
	for key := range doc.Outputs {
		t.Outputs = append(t.Outputs, key)
	}
	sort.Strings(t.Outputs)
	return t, nil
}

// CheckParameters verifies that every supplied key is declared and every
// required parameter is supplied.
func (t *Template) CheckParameters(values map[string]string) error {
	var unknown, missing []string
	for key := range values {
		if _, ok := t.Parameters[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	for key, p := range t.Parameters {
		if _, ok := values[key]; !ok && p.Required() {
			missing = append(missing, key)
		}
	}
	sort.Strings(unknown)
	sort.Strings(missing)

	var problems []string
	if len(unknown) > 0 {
		problems = append(problems, "undeclared parameters: "+strings.Join(unknown, ", "))
	}
	if len(missing) > 0 {
		problems = append(problems, "missing required parameters: "+strings.Join(missing, ", "))
	}
	if len(problems) > 0 {
		return fmt.Errorf("template %s: %s", t.Name, strings.Join(problems, "; "))
	}
	return nil
}

// HasOutput reports whether the template declares the output key.
func (t *Template) HasOutput(key string) bool {
	i := sort.SearchStrings(t.Outputs, key)
	return i < len(t.Outputs) && t.Outputs[i] == key
}
