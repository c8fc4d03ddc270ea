package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vacpac/internal/catalog"
	"vacpac/internal/config"
	"vacpac/internal/embeddings"
	"vacpac/internal/packer"
	"vacpac/internal/qdrant"
)

// openCatalog connects to Qdrant and returns the catalog of the plugin p
// builds. The caller closes the returned client.
func openCatalog(cmd *cobra.Command, p *packer.Packer) (*catalog.Catalog, *qdrant.Client, *config.Package, error) {
	pkg, project, err := p.Load(cmd.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	c, qc, err := connect(p, pkg, project)
	return c, qc, pkg, err
}

func connect(p *packer.Packer, pkg *config.Package, project *config.Project) (*catalog.Catalog, *qdrant.Client, error) {
	qc, err := qdrant.NewClient()
	if err != nil {
		return nil, nil, err
	}
	ec := embeddings.NewClient()
	p.Log.Debug("embedding model %s", ec.Model())
	c := catalog.New(qc, ec, p.Log, project.CollectionName(pkg),
		catalog.WithBatchSize(project.Catalog.BatchSize))
	return c, qc, nil
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Embed the plugin's callables and store them in the vector catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		p := newPacker(cmd)
		build, err := p.Manifest(cmd.Context())
		if err != nil {
			return err
		}

		c, qc, err := connect(p, build.Package, build.Project)
		if err != nil {
			return err
		}
		defer qc.Close()

		statePath, err := catalog.StatePath(c.Collection())
		if err != nil {
			return err
		}
		state, err := catalog.LoadState(statePath)
		if err != nil {
			return err
		}
		unchanged, err := state.Unchanged(build.Manifest)
		if err != nil {
			return err
		}
		if unchanged && !force {
			p.Log.Info("%s@%s is already published to %s", build.Manifest.Name, build.Manifest.Version, c.Collection())
			return nil
		}

		p.Log.Info("Publishing %s to %s", build.Manifest.Name, c.Collection())
		n, err := c.Publish(cmd.Context(), build.Manifest)
		if err != nil {
			return err
		}
		if err := state.Record(build.Manifest); err != nil {
			return err
		}
		if err := state.Save(); err != nil {
			return fmt.Errorf("failed to save publish state: %w", err)
		}
		p.Log.Success("Published %d callables", n)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find published callables matching a natural language query",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("q")
		topK, _ := cmd.Flags().GetInt("top_k")

		c, qc, _, err := openCatalog(cmd, newPacker(cmd))
		if err != nil {
			return err
		}
		defer qc.Close()

		hits, err := c.Search(cmd.Context(), q, topK)
		if err != nil {
			return err
		}
		return printJSON(cmd, hits)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the callables published for the plugin",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, qc, pkg, err := openCatalog(cmd, newPacker(cmd))
		if err != nil {
			return err
		}
		defer qc.Close()

		hits, err := c.List(cmd.Context(), pkg.Name)
		if err != nil {
			return err
		}
		return printJSON(cmd, hits)
	},
}

var unpublishCmd = &cobra.Command{
	Use:   "unpublish",
	Short: "Remove the plugin's callables from the vector catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		p := newPacker(cmd)
		c, qc, pkg, err := openCatalog(cmd, p)
		if err != nil {
			return err
		}
		defer qc.Close()

		statePath, err := catalog.StatePath(c.Collection())
		if err != nil {
			return err
		}
		state, err := catalog.LoadState(statePath)
		if err != nil {
			return err
		}

		log := p.Log
		if all {
			log.Info("Deleting collection: %s", c.Collection())
			if err := c.Drop(cmd.Context()); err != nil {
				return err
			}
			state.Clear()
			if err := state.Save(); err != nil {
				return err
			}
			log.Success("Collection deleted")
			return nil
		}

		if err := c.Unpublish(cmd.Context(), pkg.Name); err != nil {
			return err
		}
		state.Forget(pkg.Name)
		if err := state.Save(); err != nil {
			return err
		}
		log.Success("Removed %s from %s", pkg.Name, c.Collection())
		return nil
	},
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	publishCmd.Flags().String("dir", ".", "Plugin directory containing package.json")
	publishCmd.Flags().Bool("force", false, "Publish even if the manifest did not change")
	publishCmd.Flags().Bool("resolve-aliases", false, "Match aliased exports by their local name")

	searchCmd.Flags().String("q", "", "Natural language query")
	searchCmd.Flags().Int("top_k", 5, "Maximum number of results to return")
	searchCmd.Flags().String("dir", ".", "Plugin directory whose catalog is searched")

	listCmd.Flags().String("dir", ".", "Plugin directory containing package.json")

	unpublishCmd.Flags().String("dir", ".", "Plugin directory containing package.json")
	unpublishCmd.Flags().Bool("all", false, "Delete the whole collection")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(unpublishCmd)
}
