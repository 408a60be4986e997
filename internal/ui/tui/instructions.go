package tui

import (
	"strings"

	"github.com/determined-ai/pedl-deploy/internal/deployment"
)

// RenderInstructions renders connection instructions. Without styling the
// output equals instr.String().
func RenderInstructions(instr *deployment.Instructions, styled bool) string {
	if instr == nil {
		return ""
	}
	if !styled {
		return instr.String()
	}

	var b strings.Builder
	for i, s := range instr.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if s.Title != "" {
			b.WriteString(sectionStyle.Render(s.Title + ":"))
			b.WriteString("\n")
		}
		for _, step := range s.Steps {
			b.WriteString(dimStyle.Render(step.Label + ":"))
			b.WriteString(" ")
			b.WriteString(commandStyle.Render(step.Command))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderSuccess renders the final success banner.
func RenderSuccess(msg string, styled bool) string {
	if !styled {
		return msg
	}
	return readyStyle.Bold(true).Render(checkMark + " " + msg)
}
