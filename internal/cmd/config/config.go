// Package config provides CLI commands for managing ttylog configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appconfig "github.com/Iron-Ham/ttylog/internal/config"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify ttylog configuration",
	Long: `View or modify ttylog configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  ttylog config set capture.tab_width 8
  ttylog config set output.compress true

Valid keys:
  capture.width        - Nominal terminal width (0 sizes from line length)
  capture.tab_width    - Tab stop interval (0 keeps a literal tab)
  capture.skip_empty   - Drop records with empty text (true/false)
  output.dir           - Root of the log tree
  output.max_size_mb   - Start a new file past this size (0 disables)
  output.compress      - Gzip rotated files (true/false)
  output.sync          - Flush every record to disk (true/false)
  logging.enabled      - Write a diagnostic log (true/false)
  logging.level        - Diagnostic log level: debug, info, warn, error
  logging.file         - Diagnostic log path
  record.shell         - Command run by 'ttylog record' without arguments`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/ttylog/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  ttylog config reset                   # Reset all to defaults
  ttylog config reset capture.tab_width # Reset only capture.tab_width`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)
}

// Register adds all config-related commands to the given parent command.
// This is the main entry point for integrating the config subpackage with
// the root command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyComments documents each section and key in generated config files.
var keyComments = map[string]string{
	"capture":            "How raw terminal lines are reconstructed",
	"capture.width":      "Nominal terminal width; 0 sizes each line from its byte length",
	"capture.tab_width":  "Expand tabs to stops every N columns; 0 keeps a literal tab",
	"capture.skip_empty": "Drop records whose reconstructed text is empty",
	"output":             "Where records are written",
	"output.dir":         "Root of the log tree (default: ~/log)",
	"output.max_size_mb": "Start a new file once this size is reached; 0 disables",
	"output.compress":    "Gzip log files once a new file has been started",
	"output.sync":        "Flush every record to disk",
	"logging":            "Diagnostic log of ttylog itself",
	"logging.enabled":    "Write JSON diagnostics",
	"logging.level":      "Minimum level: debug, info, warn, error",
	"logging.file":       "Diagnostic log path (default: <output.dir>/ttylog-debug.log)",
	"record":             "ttylog record",
	"record.shell":       "Command run when none is given (default: $SHELL, then /bin/sh)",
}

// keyTypes lists the settable keys and the kind of value each takes.
var keyTypes = map[string]string{
	"capture.width":      "int",
	"capture.tab_width":  "int",
	"capture.skip_empty": "bool",
	"output.dir":         "string",
	"output.max_size_mb": "int",
	"output.compress":    "bool",
	"output.sync":        "bool",
	"logging.enabled":    "bool",
	"logging.level":      "level",
	"logging.file":       "string",
	"record.shell":       "string",
}

// renderConfig encodes cfg as YAML. With comments set, every section and
// key carries its description as a head comment.
func renderConfig(cfg *appconfig.Config, comments bool) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(cfg); err != nil {
		return nil, err
	}
	if comments {
		annotate(&node, "")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func annotate(node *yaml.Node, prefix string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		path := key.Value
		if prefix != "" {
			path = prefix + "." + key.Value
		}
		if c, ok := keyComments[path]; ok {
			key.HeadComment = c
		}
		annotate(value, path)
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Get()
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}

	data, err := renderConfig(cfg, false)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := keyTypes[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'ttylog config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "string":
		typedValue = value
	case "level":
		level := strings.ToLower(value)
		if !slices.Contains(appconfig.ValidLogLevels(), level) {
			return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidLogLevels(), ", "))
		}
		typedValue = level
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	viper.Set(key, typedValue)

	// Reject values the validator would refuse at load time
	if _, err := appconfig.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'ttylog config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := renderConfig(appconfig.Default(), true)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	content := append([]byte("# ttylog configuration\n\n"), data...)

	if err := os.WriteFile(configFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize ttylog's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", configFile)
	fmt.Fprintf(out, "  2. $HOME/.config/ttylog/config.yaml\n")
	fmt.Fprintln(out, "\nEnvironment variables: TTYLOG_* (e.g., TTYLOG_CAPTURE_TAB_WIDTH)")
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	// Check if config file exists, if not create it
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "nano", "vi"} {
			if _, err := execLookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", configFile)
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	defaults := appconfig.Default()

	defaultValues := map[string]any{
		"capture.width":      defaults.Capture.Width,
		"capture.tab_width":  defaults.Capture.TabWidth,
		"capture.skip_empty": defaults.Capture.SkipEmpty,
		"output.dir":         defaults.Output.Dir,
		"output.max_size_mb": defaults.Output.MaxSizeMB,
		"output.compress":    defaults.Output.Compress,
		"output.sync":        defaults.Output.Sync,
		"logging.enabled":    defaults.Logging.Enabled,
		"logging.level":      defaults.Logging.Level,
		"logging.file":       defaults.Logging.File,
		"record.shell":       defaults.Record.Shell,
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for key, value := range defaultValues {
			viper.Set(key, value)
		}
		fmt.Fprintln(out, "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaultValues[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'ttylog config set --help' to see valid keys", key)
		}
		viper.Set(key, value)
		fmt.Fprintf(out, "Reset %s to default: %v\n", key, value)
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

// writeConfig saves viper's current settings to the user's config file.
func writeConfig() (string, error) {
	if err := os.MkdirAll(appconfig.ConfigDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	configFile := appconfig.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}
