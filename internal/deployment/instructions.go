package deployment

import (
	"strings"
)

// Placeholders for the private key path in connection commands.
const (
	PemFilePlaceholder = "<pem-file>"
	KeypairPlaceholder = "<keypair>"
)

// Instructions tell the user how to reach a deployed master.
type Instructions struct {
	Sections []Section
}

// Section is a group of steps, optionally titled.
type Section struct {
	Title string
	Steps []Step
}

// Step is one labelled command or URL.
type Step struct {
	Label   string
	Command string
}

// WithIdentityFile replaces the key placeholders with path. An empty path
// leaves the placeholders for the user to fill in.
func (in *Instructions) WithIdentityFile(path string) *Instructions {
	if path == "" {
		return in
	}
	r := strings.NewReplacer(PemFilePlaceholder, path, KeypairPlaceholder, path)
	for i := range in.Sections {
		for j := range in.Sections[i].Steps {
			in.Sections[i].Steps[j].Command = r.Replace(in.Sections[i].Steps[j].Command)
		}
	}
	return in
}

// String renders the instructions as plain text, one step per line and a
// blank line between sections.
func (in *Instructions) String() string {
	var b strings.Builder
	for i, s := range in.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if s.Title != "" {
			b.WriteString(s.Title)
			b.WriteString(":\n")
		}
		for _, step := range s.Steps {
			b.WriteString(step.Label)
			b.WriteString(": ")
			b.WriteString(step.Command)
			b.WriteString("\n")
		}
	}
	return b.String()
}
