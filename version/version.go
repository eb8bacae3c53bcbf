// Package version carries build metadata for proc-core binaries and a
// reusable cobra command to display it.
package version

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info holds version information for one binary.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// Current returns the build metadata for the named binary.
func Current(name string) Info {
	return Info{Name: name, Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
}

// NewCommand returns a "version" subcommand for the named binary.
func NewCommand(name string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: fmt.Sprintf("Display %s version information", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := Current(name)
			if asJSON {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, built %s)\n",
				info.Name, info.Version, info.GitCommit, info.BuildDate)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version info as JSON")
	return cmd
}
