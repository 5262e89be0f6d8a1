package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/strand/internal/statefile"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the playground state file as YAML",
	Long:  `Load the playground state file and print it to stdout, normalized to the shape the store works with.`,
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().String("state-file", "", "state file to dump (default: configured playground state file)")
}

func runDump(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("state-file")
	if path == "" {
		path = resolveStateFile(cfg)
	}

	state, err := statefile.Load(path)
	if err != nil {
		return fmt.Errorf("loading state file: %w", err)
	}

	out := cmd.OutOrStdout()
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(state); err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	return encoder.Close()
}
