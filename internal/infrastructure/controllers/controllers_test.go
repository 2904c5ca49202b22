//go:build unit

package controllers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// runController mounts controller under a root command carrying the global
// flags and executes it with args.
func runController(t *testing.T, controller entities.Controller, args ...string) string {
	t.Helper()

	root := &cobra.Command{Use: "refupdate", SilenceUsage: true}
	root.PersistentFlags().StringP("config", "c", "", "")
	root.PersistentFlags().String("token", "", "")
	root.PersistentFlags().String("provider", entities.ProviderGitHub, "")
	root.PersistentFlags().StringSlice("advisories", nil, "")
	root.PersistentFlags().Bool("raise-on-ignored", false, "")
	root.PersistentFlags().Bool("dry-run", false, "")
	root.PersistentFlags().BoolP("verbose", "v", false, "")

	bind := controller.GetBind()
	sub := &cobra.Command{
		Use: bind.Use,
		Run: func(command *cobra.Command, arguments []string) {
			controller.Execute(command, arguments)
		},
	}
	if adder, ok := controller.(interface{ AddFlags(*cobra.Command) }); ok {
		adder.AddFlags(sub)
	}
	root.AddCommand(sub)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".refupdate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
