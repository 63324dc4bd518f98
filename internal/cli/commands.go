package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/graves/awful-rustdocs/internal/config"
	"github.com/graves/awful-rustdocs/internal/docpatch"
	"github.com/graves/awful-rustdocs/internal/generate"
	"github.com/graves/awful-rustdocs/internal/harvest"
	"github.com/graves/awful-rustdocs/internal/health"
	"github.com/graves/awful-rustdocs/internal/pipeline"
	"github.com/graves/awful-rustdocs/internal/preview"
	"github.com/graves/awful-rustdocs/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type cliEnv struct {
	in        io.Reader
	out       io.Writer
	errW      io.Writer
	generator generate.Generator

	configPath string
	color      string
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"concurrency": "run.concurrency",
	"artifact":    "run.artifact",
	"model":       "llm.model",
	"api-base":    "llm.api_base",
}

func newRootCommand(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:           "awful-rustdocs",
		Short:         "Generate Rustdoc comments with an LLM and patch them into Rust sources",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&env.configPath, "config", "", "config file (default: ./rustdocs.yaml, then the user config dir)")
	pf.StringVar(&env.color, "color", "auto", "colorize output (auto|on|off)")
	pf.String("log-level", "", "log level: debug, info, warn, error (overrides log.level)")
	pf.String("log-format", "", "log format: text or json (overrides log.format)")

	root.AddCommand(newRunCommand(env), newPatchCommand(env), newInitCommand(env))
	return root
}

// patchFlags are shared by run and patch.
type patchFlags struct {
	write     bool
	overwrite bool
	diff      bool
	only      []string
	root      string
}

func (f *patchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.write, "write", false, "write patched files (default is a dry run)")
	fs.BoolVar(&f.overwrite, "overwrite", false, "replace existing doc comments")
	fs.BoolVar(&f.diff, "diff", false, "print a unified diff of every planned change")
	fs.StringSliceVar(&f.only, "only", nil, "only process items with these names or qualified paths")
	fs.StringVar(&f.root, "root", ".", "directory that harvested file paths are relative to")
	fs.Int("concurrency", 0, "files processed at once (overrides run.concurrency)")
}

func newRunCommand(env *cliEnv) *cobra.Command {
	var (
		pf         patchFlags
		limit      int
		harvestCmd string
	)
	cmd := &cobra.Command{
		Use:   "run [harvest.json|-]",
		Short: "Generate docs for harvested items and patch them into the sources",
		Long: `Reads harvested items (a JSON array or JSON Lines file, "-" for stdin, or the output of --harvest-cmd),
asks the configured model for documentation of every undocumented function and struct, and patches
the results into the source files. Without --write nothing is modified; the run artifact records what
would change so it can be applied later with "patch".`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (harvestCmd == "") {
				return usagef("exactly one of a harvest file argument or --harvest-cmd is required")
			}
			cfg, log, err := env.load(cmd)
			if err != nil {
				return err
			}

			var rows []harvest.Row
			if harvestCmd != "" {
				rows, err = harvest.RunCommand(cmd.Context(), strings.Fields(harvestCmd), pf.root)
			} else {
				rows, err = harvest.Load(args[0], env.in)
			}
			if err != nil {
				return log.LogWrappedErr("could not load harvest", err)
			}
			items := harvest.Select(harvest.Items(rows), pf.only, limit)
			log.Log("harvest loaded", "rows", len(rows), "items", len(items))

			gen := env.generator
			if gen == nil {
				gen, err = generate.NewOpenAI(openAIConfig(cfg, log))
				if err != nil {
					return err
				}
			}
			return env.execute(cmd, cfg, log, pf, items, pipeline.FromGenerator(gen), cfg.Run.Artifact)
		},
	}
	pf.register(cmd)
	fs := cmd.Flags()
	fs.IntVar(&limit, "limit", 0, "process at most this many items (0 means all)")
	fs.StringVar(&harvestCmd, "harvest-cmd", "", "command whose stdout is the harvest (run in --root)")
	fs.String("artifact", "", "run artifact path (overrides run.artifact)")
	fs.String("model", "", "model name (overrides llm.model)")
	fs.String("api-base", "", "OpenAI-compatible API base URL (overrides llm.api_base)")
	return cmd
}

func newPatchCommand(env *cliEnv) *cobra.Command {
	var pf patchFlags
	cmd := &cobra.Command{
		Use:   "patch [artifact]",
		Short: "Apply the documentation recorded in a run artifact",
		Long: `Re-applies the docs recorded by a previous "run" (default: run.artifact) without calling the model.
Without --write nothing is modified.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := env.load(cmd)
			if err != nil {
				return err
			}
			path := cfg.Run.Artifact
			if len(args) == 1 {
				path = args[0]
			}
			prior, err := report.LoadJSON(path)
			if err != nil {
				return log.LogWrappedErr("could not load artifact", err, "artifact", path)
			}
			pending := prior.Pending()
			items := make([]docpatch.Item, len(pending))
			for i, p := range pending {
				items[i] = p.Item
			}
			items = harvest.Select(items, pf.only, 0)
			log.Log("artifact loaded", "artifact", path, "items", len(items))
			return env.execute(cmd, cfg, log, pf, items, pipeline.FromPending(pending), "")
		},
	}
	pf.register(cmd)
	return cmd
}

func newInitCommand(env *cliEnv) *cobra.Command {
	var force, dryRun bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if dryRun {
				data, err := config.Marshal(config.Default())
				if err != nil {
					return err
				}
				_, err = env.out.Write(data)
				return err
			}
			if err := config.WriteFile(path, config.Default(), force); err != nil {
				return err
			}
			fmt.Fprintf(env.out, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	return cmd
}

// load reads configuration with cmd's flags applied and builds the logger.
func (env *cliEnv) load(cmd *cobra.Command) (config.Config, health.Ctx, error) {
	v := config.New(env.configPath)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Config{}, health.Ctx{}, err
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, health.Ctx{}, err
	}
	return cfg, health.NewCtx(newLogger(env.errW, cfg.Log)), nil
}

// execute runs the pipeline and reports the outcome. artifact, when non-empty, is where the run log is written.
func (env *cliEnv) execute(cmd *cobra.Command, cfg config.Config, log health.Ctx, pf patchFlags, items []docpatch.Item, src pipeline.Source, artifact string) error {
	color := env.useColor()
	opts := pipeline.Options{
		Root:        pf.root,
		Write:       pf.write,
		Overwrite:   pf.overwrite,
		Concurrency: cfg.Run.Concurrency,
		Log:         log,
	}
	if pf.diff {
		opts.Preview = &preview.Options{Context: 3, Color: color}
	}

	start := time.Now()
	res, err := pipeline.Run(cmd.Context(), items, src, opts)
	if res != nil {
		for _, d := range res.Diffs {
			io.WriteString(env.out, d.Diff)
		}
		if artifact != "" {
			if werr := res.Run.WriteJSON(artifact); werr != nil {
				log.LogWrappedErr("could not write artifact", werr, "artifact", artifact)
			} else {
				log.Log("wrote artifact", "artifact", artifact)
			}
		}
		writeSummary(env.out, res.Run, color)
	}
	if err != nil {
		return err
	}
	log.Log("run finished", "run_id", res.Run.ID, "root", absOrSelf(pf.root), "elapsed_ms", time.Since(start).Milliseconds())

	if res.Run.Failed() {
		s := res.Run.Summary()
		return fmt.Errorf("%d of %d files failed", s.FilesFailed, s.Files)
	}
	return nil
}

func (env *cliEnv) useColor() bool {
	switch env.color {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := env.out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func openAIConfig(cfg config.Config, log health.Ctx) generate.OpenAIConfig {
	temp := cfg.LLM.Temperature
	return generate.OpenAIConfig{
		BaseURL:       cfg.LLM.APIBase,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		Temperature:   &temp,
		MaxTokens:     cfg.LLM.MaxTokens,
		MaxBodyTokens: cfg.LLM.MaxBodyTokens,
		MaxRetries:    cfg.LLM.MaxRetries,
		Function:      cfg.Templates.Function,
		Struct:        cfg.Templates.Struct,
		Log:           log,
	}
}

func newLogger(w io.Writer, cfg config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
