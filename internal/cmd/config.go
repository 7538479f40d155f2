package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"

	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/present"
)

func newConfigCmd(rt *runtime) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage settings",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Allow opening settings even when config parsing failed.
			return rt.editSettings()
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open settings in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return rt.editSettings()
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset settings to defaults",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Allow reset even when config parsing failed.
			return rt.resetSettings()
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:       "dirs [config|cache]",
		Short:     "Print config and cache directories",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "cache"},
		RunE: func(_ *cobra.Command, args []string) error {
			printDirs(rt.stdout, &rt.cfg, args)
			return nil
		},
	})

	return configCmd
}

func (rt *runtime) editSettings() error {
	cfg := &rt.cfg
	if err := config.WriteConfigFile(cfg.SettingsPath); err != nil {
		return errs.Wrap(err, "Could not write your settings file.")
	}

	c, err := editor.Cmd(config.AppName, cfg.SettingsPath)
	if err != nil {
		return errs.Error{Err: err, Reason: "Could not edit your settings file."}
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return errs.Error{Err: err, Reason: fmt.Sprintf(
			"Missing %s.",
			present.StderrStyles().InlineCode.Render("$EDITOR"),
		)}
	}

	if !cfg.Quiet {
		fmt.Fprintln(rt.stderr, "Wrote config file to:", cfg.SettingsPath)
	}
	return nil
}

// resetSettings backs the current file up to <path>.bak and writes the
// default template in its place.
func (rt *runtime) resetSettings() error {
	cfg := &rt.cfg
	inputFile, err := os.Open(cfg.SettingsPath)
	if err != nil {
		return errs.Error{Err: err, Reason: "Couldn't open config file."}
	}
	defer inputFile.Close() //nolint:errcheck

	outputFile, err := os.Create(cfg.SettingsPath + ".bak")
	if err != nil {
		return errs.Error{Err: err, Reason: "Couldn't backup config file."}
	}
	defer outputFile.Close() //nolint:errcheck

	if _, err := io.Copy(outputFile, inputFile); err != nil {
		return errs.Error{Err: err, Reason: "Couldn't write config file."}
	}
	if err := os.Remove(cfg.SettingsPath); err != nil {
		return errs.Error{Err: err, Reason: "Couldn't remove config file."}
	}
	if err := config.WriteConfigFile(cfg.SettingsPath); err != nil {
		return errs.Error{Err: err, Reason: "Couldn't write new config file."}
	}

	if !cfg.Quiet {
		fmt.Fprintln(rt.stderr, "\nSettings restored to defaults!")
		fmt.Fprintf(
			rt.stderr,
			"\n  %s %s\n\n",
			present.StderrStyles().Comment.Render("Your old settings have been saved to:"),
			present.StderrStyles().Link.Render(cfg.SettingsPath+".bak"),
		)
	}
	return nil
}

func printDirs(w io.Writer, cfg *config.Config, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "config":
			fmt.Fprintln(w, filepath.Dir(cfg.SettingsPath))
			return
		case "cache":
			fmt.Fprintln(w, cfg.CachePath)
			return
		}
	}

	fmt.Fprintf(w, "Configuration: %s\n", filepath.Dir(cfg.SettingsPath))
	//nolint:mnd
	fmt.Fprintf(w, "%*sCache: %s\n", 8, " ", cfg.CachePath)
}
