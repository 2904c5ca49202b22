package entities

import "github.com/spf13/cobra"

// ControllerBind is the Cobra metadata a controller is mounted with.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
}

// Controller is a CLI entry point resolved from the DIG container.
type Controller interface {
	GetBind() ControllerBind
	Execute(command *cobra.Command, arguments []string)
}
