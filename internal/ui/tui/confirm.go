package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// ConfirmDelete asks the user to confirm deletion of the named stacks.
func ConfirmDelete(ctx context.Context, stacks []string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", strings.Join(stacks, " and "))).
				Description("The checkpoint bucket is emptied and every resource in the stack is removed.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("confirmation aborted: %w", err)
	}
	return confirmed, nil
}
