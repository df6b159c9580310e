package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"pooledlist/internal/listview"
	"pooledlist/pkg/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "Manage pooledlist configuration (pool sizing, list defaults, server)",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long:  "Write a configuration file, prompting for the common settings",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Print the effective configuration as YAML",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	Long:  "Set specific configuration values",
	RunE:  runConfigSet,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration",
	Long:  "Delete the configuration file",
	RunE:  runConfigReset,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the configuration file",
	RunE:  runConfigValidate,
}

var (
	configForce        bool
	configCapacity     int
	configPrototype    string
	configExtent       float64
	configViewport     float64
	configSnap         string
	configAddress      string
	configTrimInterval time.Duration
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
	configCmd.AddCommand(configValidateCmd)

	configSetCmd.Flags().IntVar(&configCapacity, "capacity", -1, "Default idle capacity per prototype")
	configSetCmd.Flags().StringVar(&configPrototype, "prototype", "", "List row prototype name")
	configSetCmd.Flags().Float64Var(&configExtent, "element-extent", 0, "Row height")
	configSetCmd.Flags().Float64Var(&configViewport, "viewport", 0, "Viewport height")
	configSetCmd.Flags().StringVar(&configSnap, "snap", "", "Snap mode (none, items)")
	configSetCmd.Flags().StringVar(&configAddress, "address", "", "Serve address (e.g., :8080)")
	configSetCmd.Flags().DurationVar(&configTrimInterval, "trim-interval", -1, "How often serve trims idle instances (0 disables)")

	configResetCmd.Flags().BoolVar(&configForce, "force", false, "Force reset without confirmation")

	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n╔═══════════════════════════════════════╗")
	fmt.Fprintln(out, "║  pooledlist Configuration Setup       ║")
	fmt.Fprintln(out, "╚═══════════════════════════════════════╝")

	reader := bufio.NewReader(cmd.InOrStdin())
	cfg := config.Default()

	cfg.List.Prototype = prompt(out, reader, "Row prototype name", cfg.List.Prototype)

	extent, err := promptFloat(out, reader, "Row height", cfg.List.ElementExtent)
	if err != nil {
		return err
	}
	cfg.List.ElementExtent = extent

	viewport, err := promptFloat(out, reader, "Viewport height", cfg.List.ViewportExtent)
	if err != nil {
		return err
	}
	cfg.List.ViewportExtent = viewport

	capacity := prompt(out, reader, "Default idle capacity", strconv.Itoa(cfg.Pool.DefaultCapacity))
	if cfg.Pool.DefaultCapacity, err = strconv.Atoi(capacity); err != nil {
		return fmt.Errorf("invalid capacity %q", capacity)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out, "\n✓ Configuration saved to", resolvedConfigPath())
	return nil
}

func prompt(out io.Writer, reader *bufio.Reader, label, def string) string {
	fmt.Fprintf(out, "%s [%s]: ", label, def)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptFloat(out io.Writer, reader *bufio.Reader, label string, def float64) (float64, error) {
	s := prompt(out, reader, label, strconv.FormatFloat(def, 'f', -1, 64))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", strings.ToLower(label), s)
	}
	return v, nil
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if config.ConfigExists(configPath) {
		fmt.Fprintf(out, "# %s\n", resolvedConfigPath())
	} else {
		fmt.Fprintln(out, "# built-in defaults (no config file)")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	modified := false

	if configCapacity >= 0 {
		cfg.Pool.DefaultCapacity = configCapacity
		modified = true
		fmt.Fprintf(out, "✓ Default capacity updated: %d\n", configCapacity)
	}
	if configPrototype != "" {
		cfg.List.Prototype = configPrototype
		modified = true
		fmt.Fprintf(out, "✓ Prototype updated: %s\n", configPrototype)
	}
	if configExtent != 0 {
		cfg.List.ElementExtent = configExtent
		modified = true
		fmt.Fprintf(out, "✓ Row height updated: %v\n", configExtent)
	}
	if configViewport != 0 {
		cfg.List.ViewportExtent = configViewport
		modified = true
		fmt.Fprintf(out, "✓ Viewport updated: %v\n", configViewport)
	}
	if configSnap != "" {
		mode, err := listview.ParseSnapMode(configSnap)
		if err != nil {
			return err
		}
		cfg.List.Snap = mode.String()
		modified = true
		fmt.Fprintf(out, "✓ Snap updated: %s\n", mode)
	}
	if configAddress != "" {
		cfg.Server.Address = configAddress
		modified = true
		fmt.Fprintf(out, "✓ Address updated: %s\n", configAddress)
	}
	if configTrimInterval >= 0 {
		cfg.Pool.TrimInterval = configTrimInterval
		modified = true
		fmt.Fprintf(out, "✓ Trim interval updated: %s\n", configTrimInterval)
	}

	if !modified {
		return errors.New("no changes specified, see 'pooledlist config set --help'")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out, "✓ Configuration saved")
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !config.ConfigExists(configPath) {
		fmt.Fprintln(out, "No configuration file found")
		return nil
	}

	if !configForce {
		fmt.Fprint(out, "Are you sure you want to delete the configuration? (y/N): ")
		reader := bufio.NewReader(cmd.InOrStdin())
		response, _ := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}
	}

	if err := os.Remove(resolvedConfigPath()); err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}

	fmt.Fprintln(out, "✓ Configuration file deleted")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nValidating configuration...")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(out, "✗ Configuration is invalid")
		return err
	}

	fmt.Fprintf(out, "✓ Prototype %q, rows %v high in a %v viewport\n",
		cfg.List.Prototype, cfg.List.ElementExtent, cfg.List.ViewportExtent)
	fmt.Fprintf(out, "✓ Default idle capacity %d\n", cfg.Pool.DefaultCapacity)

	if cfg.Pool.TrimInterval == 0 {
		fmt.Fprintln(out, "⚠ Trimming is disabled, idle instances are never destroyed while serving")
	} else {
		fmt.Fprintf(out, "✓ Trim every %s\n", cfg.Pool.TrimInterval)
	}
	if cfg.Server.Domain == "" {
		fmt.Fprintln(out, "⚠ No domain set, serve runs without TLS")
	}

	fmt.Fprintln(out, "\n✓ Configuration is valid")
	return nil
}
