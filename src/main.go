package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const appVersion = "1.0.0"

func main() {
	// Config file values become the flag defaults, so the precedence is
	// flags > file > built-in defaults.
	cfgFile := defaultConfigFile()
	if configExists() {
		loaded, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", getConfigPath(), err)
			os.Exit(1)
		}
		cfgFile = loaded
	}

	var simulate bool
	dateSources := flag.String("date-sources", strings.Join(cfgFile.DateSources, ","),
		"Comma-separated date sources in priority order (exif, file-name, file-created, file-modified)")
	dateFormat := flag.String("date-format", cfgFile.DateFormat, "strftime pattern for the new file name")
	filenameFormat := flag.String("filename-format", cfgFile.FilenameFormat,
		"strftime pattern for the file-name date source")
	mvCmd := flag.String("mv-cmd", cfgFile.MvCmd, "External move command instead of a plain rename")
	flag.BoolVar(&simulate, "simulate", cfgFile.Simulate, "Only show what would be renamed")
	flag.BoolVar(&simulate, "s", cfgFile.Simulate, "Shorthand for -simulate")
	pause := flag.Bool("pause", false, "Wait for Enter after each per-file error")
	noCache := flag.Bool("no-cache", false, "Disable the timestamp cache")
	pruneCache := flag.Bool("prune-cache", false, "Drop cache entries for deleted files before processing")
	saveCfg := flag.Bool("save-config", false, "Write the merged settings to "+getConfigPath())
	useTUI := flag.Bool("tui", false, "Review the rename plan interactively before applying it")
	version := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] FILE...\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Printf("exif-rename %s\n", appVersion)
		return
	}

	merged := &ConfigFile{
		DateSources:    splitSources(*dateSources),
		DateFormat:     *dateFormat,
		FilenameFormat: *filenameFormat,
		MvCmd:          *mvCmd,
		Simulate:       simulate,
	}
	config, err := merged.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	config.Pause = *pause
	config.NoCache = *noCache

	if *saveCfg {
		if err := saveConfig(merged); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration saved to", getConfigPath())
		if flag.NArg() == 0 {
			return
		}
	}

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var cache *TimestampCache
	if !config.NoCache {
		cache, err = OpenTimestampCache()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache disabled: %v\n", err)
			cache = nil
		} else {
			defer cache.Close()
			if *pruneCache {
				if pruned, err := cache.PruneDeleted(); err == nil && pruned > 0 {
					fmt.Fprintf(os.Stderr, "Pruned %d deleted files from cache\n", pruned)
				}
			}
		}
	}

	if *useTUI {
		runTUI(config, cache, files)
	} else {
		runCLI(config, cache, files)
	}
}

func splitSources(s string) []string {
	var sources []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			sources = append(sources, part)
		}
	}
	return sources
}

func runCLI(config *Config, cache *TimestampCache, files []string) {
	var strategy renameStrategy
	if config.Simulate {
		strategy = NewSimulatedStrategy()
	} else {
		strategy = NewLiveStrategy(config.MvCmd)
	}

	stdin := bufio.NewReader(os.Stdin)
	renamer := NewRenamer(config, cache, strategy, func(res RenameResult) {
		fmt.Println(res.String())
		if res.Err != nil {
			for _, line := range strings.Split(res.Err.Error(), "\n") {
				fmt.Fprintf(os.Stderr, "  %s\n", line)
			}
			if config.Pause {
				fmt.Fprint(os.Stderr, "Press Enter to continue...")
				stdin.ReadString('\n')
			}
		}
	})

	if err := renamer.Run(files); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(config *Config, cache *TimestampCache, files []string) {
	p := tea.NewProgram(initialModel(config, cache, files), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
