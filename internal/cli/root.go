// Package cli implements the drishti command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/display"
	"github.com/ayusman/drishti/internal/embedder"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Model and device constructors, replaced in tests.
var (
	newDetector = detector.New
	newEmbedder = func(config embedder.Config) (embedder.Embedder, error) {
		return embedder.NewOpenFaceEmbedder(config)
	}
	newCamera  = capture.NewCamera
	newDisplay = func(headless bool) display.Display {
		if headless {
			return display.NewHeadless()
		}
		return display.NewWindowDisplay()
	}
)

// NewRootCommand builds the drishti command tree. Running it without a
// subcommand starts live identification.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "drishti",
		Short: "Live face identification from a webcam",
		Long: `Drishti names the people in a live video stream. It enrolls one
reference photo per person into a gallery, then detects every face in each
frame, matches it against the gallery and draws the label on the preview.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	opts.register(root)
	root.AddCommand(newRunCommand(opts), newGalleryCommand(opts), newVersionCommand())

	return root
}

// Execute runs the command line until completion or SIGINT/SIGTERM.
func Execute() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
