package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vacpac/internal/config"
	"vacpac/internal/console"
	"vacpac/internal/packer"
	"vacpac/internal/watcher"
)

// Version information, set by main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "vacpac",
	Short: "Extract the callable surface of a JS/TS plugin and bundle it",
	Long: "A CLI tool that reads a plugin's entry file, writes a manifest of its exported " +
		"functions and bundles the plugin with rollup. Manifests can be published to a " +
		"vector catalog for semantic lookup.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load shared config (~/.vacpac/config.json) so OPENAI_*/QDRANT_*
		// from that file are visible as env vars.
		if err := config.LoadFromUserConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		}
		if dir, err := cmd.Flags().GetString("dir"); err == nil {
			if err := config.LoadDotEnv(dir); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to load %s/.env: %v\n", dir, err)
			}
		}
	},
}

func logger(cmd *cobra.Command) *console.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return console.New(os.Stderr, verbose)
}

func newPacker(cmd *cobra.Command) *packer.Packer {
	dir, _ := cmd.Flags().GetString("dir")
	opts := packer.Options{}
	if cmd.Flags().Lookup("resolve-aliases") != nil {
		opts.ResolveAliases, _ = cmd.Flags().GetBool("resolve-aliases")
	}
	if cmd.Flags().Lookup("out") != nil {
		opts.ManifestPath, _ = cmd.Flags().GetString("out")
	}
	return packer.New(dir, logger(cmd), opts)
}

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Write manifest.json for the plugin and run the bundler",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPacker(cmd)
		p.Options.SkipBundle, _ = cmd.Flags().GetBool("no-bundle")
		_, err := p.Pack(cmd.Context())
		return err
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the plugin manifest to stdout without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		build, err := newPacker(cmd).Manifest(cmd.Context())
		if err != nil {
			return err
		}
		data, err := build.Manifest.JSON()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the manifest whenever the plugin sources change",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPacker(cmd)
		bundle, _ := cmd.Flags().GetBool("bundle")
		p.Options.SkipBundle = !bundle

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rebuild := func(ctx context.Context) error {
			_, err := p.Pack(ctx)
			return err
		}
		w := watcher.New(p.Dir, p.Log, rebuild)
		if _, project, err := p.Load(ctx); err == nil {
			w.Generated = []string{project.Bundler.Config}
		}
		if err := rebuild(ctx); err != nil {
			p.Log.Error("%v", err)
		}
		return w.Run(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vacpac %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Show debug output")

	packCmd.Flags().String("dir", ".", "Plugin directory containing package.json")
	packCmd.Flags().Bool("no-bundle", false, "Write the manifest but skip the bundler")
	packCmd.Flags().Bool("resolve-aliases", false, "Match aliased exports by their local name")
	packCmd.Flags().String("out", "", "Manifest path relative to the plugin directory")

	manifestCmd.Flags().String("dir", ".", "Plugin directory containing package.json")
	manifestCmd.Flags().Bool("resolve-aliases", false, "Match aliased exports by their local name")

	watchCmd.Flags().String("dir", ".", "Plugin directory containing package.json")
	watchCmd.Flags().Bool("bundle", false, "Run the bundler after every rebuild")
	watchCmd.Flags().Bool("resolve-aliases", false, "Match aliased exports by their local name")
	watchCmd.Flags().String("out", "", "Manifest path relative to the plugin directory")

	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
