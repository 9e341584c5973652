package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notes-backend/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the text the service would index for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		mediaType := mime.TypeByExtension(filepath.Ext(name))
		if !extract.Supported(mediaType, name) {
			return fmt.Errorf("%s: unsupported format", name)
		}
		text := extract.Text(cmd.Context(), data, mediaType, name)
		if text == "" {
			text = extract.Sentinel(name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}
