package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sagarc03/assetgate"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <path>...",
	Short: "Show how request paths would be handled",
	Long: `Classify prints the verdict for each path without touching storage:
blocked paths get 403, paths without an allowed asset extension get 404,
and allowed paths are looked up under the printed key.`,
	Example: `  assetgate classify /images/logo.png /wp-login.php /robots.txt`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeClassifications(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func writeClassifications(w io.Writer, paths []string) error {
	for _, p := range paths {
		c := assetgate.Classify(p)

		var line string
		switch c.Verdict {
		case assetgate.VerdictBlocked:
			line = fmt.Sprintf("%s\t%s\t%s\n", p, c.Verdict, c.Reason)
		case assetgate.VerdictAllowed:
			line = fmt.Sprintf("%s\t%s\tkey=%s\n", p, c.Verdict, c.Key)
		default:
			line = fmt.Sprintf("%s\t%s\n", p, c.Verdict)
		}

		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
