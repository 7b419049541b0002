//go:build cgo

package main

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/deskd/internal/embeddings"
	"github.com/spf13/cobra"
)

var (
	forceDownload bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&forceDownload, "force", "f", false, "Force re-download even if ONNX runtime exists")
}

// initCmd installs local dependencies for the fastembed provider
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install deskd local dependencies",
	Long: `Install the dependencies deskd needs for fully local operation.

Currently this downloads the ONNX runtime library required for local
embeddings with FastEmbed. The library is installed to:
  ~/.config/deskd/lib/

If the ONNX_PATH environment variable is set, that path takes precedence.

Examples:
  # Download the ONNX runtime
  deskctl init

  # Force re-download even if already installed
  deskctl init --force`,
	RunE: runInit,
}

// runInit handles the init command
func runInit(cmd *cobra.Command, args []string) error {
	if !forceDownload {
		if path := embeddings.GetONNXLibraryPath(); path != "" {
			cmd.Printf("ONNX runtime already installed at: %s\n", path)
			cmd.Println("Use --force to re-download.")
			return nil
		}
	}

	cmd.Printf("Downloading ONNX runtime v%s...\n", embeddings.DefaultONNXRuntimeVersion)

	if err := embeddings.DownloadONNXRuntime(context.Background(), ""); err != nil {
		return fmt.Errorf("failed to download ONNX runtime: %w", err)
	}

	path := embeddings.GetONNXLibraryPath()
	if path == "" {
		return fmt.Errorf("download completed but library not found")
	}

	cmd.Printf("Successfully installed ONNX runtime to: %s\n", path)
	return nil
}
