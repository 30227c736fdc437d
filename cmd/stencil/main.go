// stencil is the template scaffolding engine: it serves the scaffolding API
// and offers one-shot generation, type listing, schema introspection, and
// version registry inspection from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikeyVK/stencil/internal/artifact"
	"github.com/MikeyVK/stencil/internal/config"
	"github.com/MikeyVK/stencil/internal/fsio"
	"github.com/MikeyVK/stencil/internal/introspect"
	"github.com/MikeyVK/stencil/internal/manager"
	"github.com/MikeyVK/stencil/internal/policy"
	"github.com/MikeyVK/stencil/internal/render"
	"github.com/MikeyVK/stencil/internal/scaffold"
	"github.com/MikeyVK/stencil/internal/server"
	"github.com/MikeyVK/stencil/internal/store"
	"github.com/MikeyVK/stencil/internal/version"
)

var (
	cfgPath string
	verbose bool
	logger  *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stencil",
		Short: "Provenance-aware template scaffolding engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zc := zap.NewProductionConfig()
			if verbose {
				zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
				zc.Development = true
			}
			var err error
			logger, err = zc.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "stencil.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd(), genCmd(), typesCmd(), schemaCmd(), versionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is the fully wired engine for one invocation.
type app struct {
	cfg       *config.Config
	types     *artifact.Registry
	templates *render.Store
	versions  *version.Registry
	history   store.Store
	mgr       *manager.Manager
}

func (a *app) close() {
	if a.history != nil {
		a.history.Close()
	}
}

// buildApp assembles the engine from configuration. withHistory controls
// whether the SQLite history store is opened; one-shot commands that never
// scaffold skip it.
func buildApp(withHistory bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	types, err := artifact.FromSource(cfg.ArtifactTypesPath)
	if err != nil {
		return nil, err
	}
	templates, err := render.NewStore(cfg.TemplateRoot)
	if err != nil {
		return nil, err
	}
	versions, err := version.NewRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	fs, err := fsio.NewAdapter(cfg.WorkspaceRoot)
	if err != nil {
		return nil, err
	}

	var history store.Store
	if withHistory {
		history, err = store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
	}

	engine := render.NewEngine(templates)
	mgr := manager.New(manager.Options{
		Types:      types,
		Templates:  templates,
		Scaffolder: scaffold.New(engine, templates),
		Versions:   versions,
		Dirs:       policy.NewConfigResolver(cfg.OutputDirs),
		FS:         fs,
		TempDir:    cfg.TempDir,
		History:    history,
		Logger:     logger,
	})

	return &app{
		cfg:       cfg,
		types:     types,
		templates: templates,
		versions:  versions,
		history:   history,
		mgr:       mgr,
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scaffolding API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.New(a.mgr, a.types, a.templates, a.versions, a.history, logger)
			addr := fmt.Sprintf(":%d", a.cfg.Port)
			return srv.Start(addr)
		},
	}
}

func genCmd() *cobra.Command {
	var (
		output string
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "gen <artifact-type>",
		Short: "Scaffold one artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := map[string]any{}
			for _, f := range fields {
				k, v, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("field %q must be key=value", f)
				}
				ctx[k] = v
			}

			path, err := a.mgr.ScaffoldArtifact(cmd.Context(), args[0], output, ctx)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "explicit output path (workspace-relative)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "template field as key=value (repeatable)")
	return cmd
}

func typesCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List registered artifact types",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(false)
			if err != nil {
				return err
			}
			for _, id := range a.types.ListTypeIDs(artifact.Category(category)) {
				def, err := a.types.GetArtifact(id)
				if err != nil {
					return err
				}
				fmt.Printf("%-16s %-10s %s\n", def.TypeID, def.Category, def.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "filter by category (code, doc, transient)")
	return cmd
}

func schemaCmd() *cobra.Command {
	var tmpl, serviceType string
	cmd := &cobra.Command{
		Use:   "schema <artifact-type>",
		Short: "Show the introspected field schema for an artifact type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(false)
			if err != nil {
				return err
			}
			def, err := a.types.GetArtifact(args[0])
			if err != nil {
				return err
			}

			ctx := map[string]any{}
			if tmpl != "" {
				ctx["template"] = tmpl
			}
			if serviceType != "" {
				ctx["service_type"] = serviceType
			}
			templateID, err := scaffold.ResolveTemplate(def, ctx)
			if err != nil {
				return err
			}
			schema, err := introspect.IntrospectChain(a.templates, templateID)
			if err != nil {
				return err
			}

			return printJSON(map[string]any{
				"artifact_type": def.TypeID,
				"template_id":   templateID,
				"required":      schema.Required,
				"optional":      schema.Optional,
			})
		},
	}
	cmd.Flags().StringVar(&tmpl, "template", "", "template override (generic type)")
	cmd.Flags().StringVar(&serviceType, "service-type", "", "service subtype")
	return cmd
}

func versionsCmd() *cobra.Command {
	var hash string
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect the version fingerprint registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(false)
			if err != nil {
				return err
			}

			if hash != "" {
				rec, err := a.versions.LookupHash(hash)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("unknown fingerprint %s", hash)
				}
				return printJSON(rec)
			}

			current, err := a.versions.CurrentVersions()
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"current_versions": current})
		},
	}
	cmd.Flags().StringVar(&hash, "hash", "", "look up a specific fingerprint")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
