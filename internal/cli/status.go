package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report index health",
	Long: `Report whether a serving artifact exists, its version and the corpus
counts behind it.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	health := a.pipeline.Health()
	if statusJSON {
		output, _ := json.MarshalIndent(health, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Status:    %s\n", health.Status)
	if health.Status == "ok" {
		fmt.Printf("Version:   %d\n", health.Generation)
		fmt.Printf("Documents: %d\n", health.Documents)
		fmt.Printf("Passages:  %d\n", health.Passages)
	} else {
		fmt.Println("\nNo index found. Run 'docqa build' first.")
	}
	return nil
}
