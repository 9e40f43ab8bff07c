package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/miosa/osa-vlist/app"
	"github.com/miosa/osa-vlist/config"
	"github.com/miosa/osa-vlist/style"
	"github.com/miosa/osa-vlist/sysmon"
)

var version = "dev"

func main() {
	profileFlag := flag.String("profile", "", "Named profile for state isolation (~/.osa-vlist/profiles/<name>)")
	sourceFlag := flag.String("source", config.SourceSynthetic, "Data source: synthetic or git")
	countFlag := flag.Int("count", 0, "Number of synthetic entries")
	seedFlag := flag.Uint64("seed", 0, "Seed for synthetic entries")
	repoFlag := flag.String("repo", ".", "Repository path for the git source")
	limitFlag := flag.Int("limit", 0, "Maximum commits loaded from the git source (0 = no limit)")
	estimateFlag := flag.Int("estimate", 0, "Estimated height of an unmeasured item, in lines")
	overscanFlag := flag.Int("overscan", 0, "Items rendered beyond each edge of the viewport")
	gapFlag := flag.Int("gap", 0, "Blank lines after each item")
	followFlag := flag.Bool("follow", false, "Keep the newest entry in view")
	themeFlag := flag.String("theme", "", "Color theme: "+fmt.Sprint(style.ThemeNames))
	debugFlag := flag.Bool("debug", false, "Write debug logs to <profile>/debug.log")
	noColor := flag.Bool("no-color", false, "Disable ANSI colors")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.BoolVar(showVersion, "V", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("osa-vlist %s\n", version)
		os.Exit(0)
	}

	if *noColor {
		// Caller can set NO_COLOR=1 in the shell to disable colors.
		os.Setenv("NO_COLOR", "1")
	}

	home, _ := os.UserHomeDir()
	app.ProfileDir = filepath.Join(home, ".osa-vlist")
	if *profileFlag != "" {
		app.ProfileDir = filepath.Join(app.ProfileDir, "profiles", *profileFlag)
	}

	cfg := config.Load(app.ProfileDir)

	// Flags given on the command line override the profile.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *sourceFlag
		case "count":
			cfg.Count = *countFlag
		case "seed":
			cfg.Seed = *seedFlag
		case "repo":
			cfg.Repo = *repoFlag
		case "limit":
			cfg.Limit = *limitFlag
		case "estimate":
			cfg.EstimatedHeight = *estimateFlag
		case "overscan":
			cfg.Overscan = *overscanFlag
		case "gap":
			cfg.Gap = *gapFlag
		case "follow":
			cfg.Follow = *followFlag
		case "theme":
			cfg.Theme = *themeFlag
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "osa-vlist: %v\n", err)
		os.Exit(2)
	}

	// Auto-detect terminal background when no theme is configured.
	if cfg.Theme == "" {
		if lipgloss.HasDarkBackground(os.Stdin, os.Stdout) {
			style.SetTheme("dark")
		} else {
			style.SetTheme("light")
		}
	}

	logger, closeLog, err := openLogger(*debugFlag || os.Getenv("OSA_VLIST_DEBUG") == "1")
	if err != nil {
		fmt.Fprintf(os.Stderr, "osa-vlist: %v\n", err)
		os.Exit(1)
	}
	err = run(cfg, logger)
	closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "osa-vlist: %v\n", err)
		os.Exit(1)
	}
}

// run builds the root model and drives the program until it quits.
func run(cfg config.Config, logger *slog.Logger) error {
	opts := []app.Option{app.WithVersion(version), app.WithLogger(logger)}
	if s, err := sysmon.New(); err == nil {
		opts = append(opts, app.WithSampler(s))
	} else {
		logger.Warn("process stats disabled", "err", err)
	}

	m, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}

	// In bubbletea v2, AltScreen and mouse mode are configured on the View
	// returned by the model's View() method. Pass no options here.
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", "err", err)
		return err
	}
	return nil
}

// openLogger returns a debug logger writing to <profile>/debug.log, or a
// discarding logger when debug is off. The TUI owns the terminal, so logs
// never go to stderr while it runs.
func openLogger(debug bool) (*slog.Logger, func() error, error) {
	if !debug {
		return slog.New(slog.DiscardHandler), func() error { return nil }, nil
	}
	if err := os.MkdirAll(app.ProfileDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create profile dir: %w", err)
	}
	f, err := tea.LogToFile(filepath.Join(app.ProfileDir, "debug.log"), "osa-vlist")
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting", "version", version, "profile", app.ProfileDir)
	return logger, f.Close, nil
}
