package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-hooks/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize go-hooks with default configuration and directory structure",
	Long: `Creates the default configuration file (config.yaml), an example action
file (actions.yaml) and the data directory structure.

This command will:
  - Create config.yaml with default settings
  - Create actions.yaml with example actions
  - Create data/actionsets/ and data/variables/ for file storage

Existing files are not overwritten unless --force is used.`,
	RunE: runInit,
}

var (
	initForce bool
	initPath  string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVarP(&initPath, "path", "p", ".", "Path where to initialize (default: current directory)")
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	out := cmd.OutOrStdout()
	created, err := initWorkspace(absPath, initForce)
	for _, path := range created {
		fmt.Fprintf(out, "Created: %s\n", path)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Initialization complete! Set proxy.upstream in config.yaml and start the server with:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", absPath)
	fmt.Fprintln(out, "  go-hooks serve")
	fmt.Fprintln(out)

	return nil
}

// initWorkspace writes the default files under dir and returns the paths it
// created
func initWorkspace(dir string, force bool) ([]string, error) {
	configFile := filepath.Join(dir, "config.yaml")
	actionsFile := filepath.Join(dir, "actions.yaml")
	dataDir := filepath.Join(dir, "data")

	if !force {
		for _, f := range []string{configFile, actionsFile} {
			if _, err := os.Stat(f); err == nil {
				return nil, fmt.Errorf("%s already exists. Use --force to overwrite", filepath.Base(f))
			}
		}
	}

	var created []string

	dirs := []string{
		filepath.Join(dataDir, "actionsets"),
		filepath.Join(dataDir, "variables"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return created, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
		created = append(created, d)
	}

	cfg := config.Default()
	cfg.Storage.Type = config.StorageFile
	cfg.Storage.Path = "./data"
	cfg.Proxy.Upstream = "http://localhost:3000"

	files := []struct {
		path   string
		header string
		value  any
	}{
		{configFile, "# go-hooks configuration\n\n", cfg},
		{actionsFile, "# Example actions, try them with: go-hooks run --exchange exchange.yaml\n\n", exampleActions},
	}
	for _, f := range files {
		data, err := yaml.Marshal(f.value)
		if err != nil {
			return created, fmt.Errorf("failed to generate %s: %w", filepath.Base(f.path), err)
		}
		if err := os.WriteFile(f.path, append([]byte(f.header), data...), 0644); err != nil {
			return created, fmt.Errorf("failed to write %s: %w", filepath.Base(f.path), err)
		}
		created = append(created, f.path)
	}

	return created, nil
}
