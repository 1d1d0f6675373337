package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/config"
)

var buildTarget string

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build the passage index for a directory",
	Long: `Chunk, embed and index the documents in the given directory. The
artifact is stored in .docqa/artifacts.db within the target directory and
replaces any previous one atomically. --target names a single changed
document; the document must exist in the corpus.

Examples:
  docqa build .                       # Index current directory
  docqa build /path/to/docs           # Index specific directory
  docqa build --target notes/faq.md   # Rebuild after one document changed`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildTarget, "target", "", "changed document id triggering the rebuild")
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	a, err := newApp(GetConfig(), path)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	result := a.pipeline.Reload(cmd.Context(), buildTarget, progress)
	if result.Status != "ok" {
		return fmt.Errorf("build failed: %s", result.Err)
	}

	art := a.manager.Current()
	fmt.Printf("\nBuild complete:\n")
	fmt.Printf("  Documents: %d\n", len(art.Manifest.Documents))
	fmt.Printf("  Passages:  %d\n", result.Passages)
	fmt.Printf("  Version:   %d\n", result.Generation)
	fmt.Printf("\nArtifact stored at: %s\n", config.ArtifactDBPath(path))
	return nil
}
