package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/ainterviewer/internal/ingestion"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Print the text extracted from a resume or job description file",
	Long:  "Print the text extracted from a resume or job description file. Supported: " + strings.Join(ingestion.SupportedExtensions, ", "),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := ingestion.ReadFile(args[0])
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
