// Package cmd provides the CLI commands for gitbrief.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitbrief/gitbrief/internal/domain"
	"github.com/gitbrief/gitbrief/internal/infrastructure/config"
	"github.com/gitbrief/gitbrief/internal/usecases"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// TemplateFinder resolves a prompt template by name.
type TemplateFinder interface {
	Find(ctx context.Context, name string) (domain.PromptTemplate, error)
}

// Sink delivers extraction results and assembled prompts.
type Sink interface {
	domain.RecordWriter
	domain.PromptSink
}

// RecentStore remembers repository paths across invocations.
type RecentStore interface {
	Paths() []string
	Remember(path string) error
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// ConfigLoader loads application settings.
	ConfigLoader func() (*config.Settings, error)

	// LoggerFactory creates a logger at the given level.
	LoggerFactory func(level string) Logger

	// SourceFactory creates a ChangeSource for the given repository path.
	SourceFactory func(path string, log Logger) (domain.ChangeSource, error)

	// TemplateFinderFactory creates a TemplateFinder over a template directory.
	TemplateFinderFactory func(dir string, log Logger) TemplateFinder

	// CounterFactory creates a token counter.
	CounterFactory func() domain.TokenCounter

	// ProviderFactory creates a validated StreamProvider.
	ProviderFactory func(name string, settings *config.Settings) (domain.StreamProvider, error)

	// SinkFactory creates the delivery sink.
	SinkFactory func() Sink

	// RecentStore persists recently used repository paths. Optional.
	RecentStore RecentStore

	// Stdout is the writer for results and live stream output.
	Stdout io.Writer

	// Stderr is the writer for warnings and status messages.
	Stderr io.Writer
}

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for gitbrief.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitbrief",
		Short: "Turn local Git history into structured prompts for language models",
		Long: `gitbrief extracts commit and diff data from a local Git repository,
assembles language-model prompts from it, and routes the result to the
clipboard, a file, or a live streaming model session.

Examples:
  # Extract the last 5 commits as JSON
  gitbrief extract --limit 5 --out commits.json

  # Extract staged changes
  gitbrief extract --staged --out staged.json

  # Build a prompt from a template and route by size
  gitbrief prompt --template code-review

  # Stream a prompt straight to a local model
  gitbrief run --provider ollama --prompt "Summarize this diff"`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newExtractCmd(deps))
	rootCmd.AddCommand(newPromptCmd(deps))
	rootCmd.AddCommand(newRunCmd(deps))

	return rootCmd
}

// session bundles the pieces every subcommand sets up the same way.
type session struct {
	settings *config.Settings
	log      Logger
}

func setup(deps *Dependencies) (*session, error) {
	if deps == nil {
		return nil, errors.New("dependencies not configured")
	}
	settings, err := deps.ConfigLoader()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return &session{
		settings: settings,
		log:      deps.LoggerFactory(settings.LogLevel),
	}, nil
}

// openSource opens the repository at path and remembers it on success.
func openSource(ctx context.Context, deps *Dependencies, rt *session, path string) (domain.ChangeSource, error) {
	source, err := deps.SourceFactory(path, rt.log)
	if err != nil {
		rt.log.Error(ctx, "failed to open git repository", err, map[string]interface{}{
			"path": path,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			if deps.RecentStore != nil {
				if recents := deps.RecentStore.Paths(); len(recents) > 0 {
					fmt.Fprintf(stderrOf(deps), "Recently used repositories:\n  %s\n",
						strings.Join(recents, "\n  "))
				}
			}
			return nil, fmt.Errorf("not a git repository: %s", path)
		}
		return nil, err
	}

	if deps.RecentStore != nil {
		if err := deps.RecentStore.Remember(path); err != nil {
			rt.log.Warn(ctx, "failed to remember repository path", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	return source, nil
}

func newExtractCmd(deps *Dependencies) *cobra.Command {
	var (
		staged  bool
		limit   int
		since   string
		until   string
		author  string
		hashes  []string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "extract [path]",
		Short: "Extract commit history or staged changes as JSON records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(deps)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			filter, err := buildFilter(staged, limit, since, until, author, hashes)
			if err != nil {
				return err
			}

			source, err := openSource(ctx, deps, rt, repoPath(args))
			if err != nil {
				return err
			}
			defer closeSource(ctx, rt.log, source)

			records, err := source.Extract(ctx, filter)
			if err != nil {
				rt.log.Error(ctx, "extraction failed", err, nil)
				return err
			}

			if len(records) == 0 {
				fmt.Fprintln(stderrOf(deps), "No data found (empty diff).")
				return nil
			}

			sink := deps.SinkFactory()
			if err := sink.WriteRecords(records, outPath); err != nil {
				rt.log.Error(ctx, "failed to write records", err, nil)
				return fmt.Errorf("output error: %w", err)
			}

			rt.log.Info(ctx, "extraction complete", map[string]interface{}{
				"records": len(records),
				"out":     outPath,
			})
			fmt.Fprintf(stderrOf(deps), "Saved %d records to %s\n", len(records), outPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&staged, "staged", false, "Extract staged changes (index vs HEAD) instead of history")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of commits to extract (0 = unlimited)")
	cmd.Flags().StringVar(&since, "since", "", "Only commits at or after this time (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&until, "until", "", "Only commits at or before this time (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&author, "author", "", "Only commits whose author name or email contains this substring")
	cmd.Flags().StringSliceVar(&hashes, "hash", nil, "Extract these specific commit revisions")
	cmd.Flags().StringVarP(&outPath, "out", "o", "extracted/commits.json", "Output file for the JSON records")

	return cmd
}

func newPromptCmd(deps *Dependencies) *cobra.Command {
	var (
		templateName string
		templateDir  string
		mode         string
		outPath      string
		providerName string
	)

	cmd := &cobra.Command{
		Use:   "prompt [path]",
		Short: "Build a prompt from a template and deliver it by size",
		Long: `prompt extracts repository data as configured by the template, hydrates
the template's prompts with the diff content, and delivers the payload.

Delivery modes:
  auto       route by estimated token count (clipboard below the threshold,
             file at or above it)
  clipboard  always copy to the clipboard
  file       always write to --out
  execute    stream to the model backend given by --provider`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(deps)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			finder := deps.TemplateFinderFactory(templateDir, rt.log)
			tpl, err := finder.Find(ctx, templateName)
			if err != nil {
				return fmt.Errorf("template %q: %w", templateName, err)
			}
			if mode == "" {
				mode = tpl.Execution.OutputMode
			}
			if mode == "" {
				mode = "auto"
			}

			source, err := openSource(ctx, deps, rt, repoPath(args))
			if err != nil {
				return err
			}
			defer closeSource(ctx, rt.log, source)

			filter := domain.ExtractFilter{Mode: domain.ExtractMode(tpl.Execution.Source)}
			if filter.Mode == domain.ModeHistory {
				filter.Limit = tpl.Execution.Limit
			}

			records, err := source.Extract(ctx, filter)
			if err != nil {
				rt.log.Error(ctx, "extraction failed", err, nil)
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(stderrOf(deps), "No data found (empty diff).")
				return nil
			}

			builder := usecases.NewPayloadBuilder(deps.CounterFactory(), rt.settings.MaxPromptTokens, rt.log)
			payload := builder.Build(ctx, tpl, records)
			fmt.Fprintf(stderrOf(deps), "Payload size: ~%d tokens\n", payload.EstimatedTokens)

			return deliver(ctx, deps, rt, payload, mode, outPath, providerName)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name to execute")
	cmd.Flags().StringVar(&templateDir, "template-dir", "templates", "Directory containing template JSON files")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Delivery mode: auto, clipboard, file, execute (default: template's output_mode)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "extracted/prompt.txt", "Output file for file delivery")
	cmd.Flags().StringVarP(&providerName, "provider", "p", "ollama", "Model backend for execute mode")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func newRunCmd(deps *Dependencies) *cobra.Command {
	var (
		providerName string
		prompt       string
		promptFile   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream a prompt straight to a model backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(deps)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			userPrompt, err := resolvePrompt(prompt, promptFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			return streamTo(ctx, deps, rt, providerName, "", userPrompt)
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "ollama", "Model backend: ollama, openai, xai, gemini")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt text (reads stdin when neither --prompt nor --prompt-file is given)")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "File containing the prompt text")

	return cmd
}

// deliver routes the payload to its channel. In auto mode the decision is a
// pure function of the estimated token count and the configured threshold.
func deliver(
	ctx context.Context,
	deps *Dependencies,
	rt *session,
	payload domain.Payload,
	mode, outPath, providerName string,
) error {
	if mode == "auto" {
		decision := usecases.Decide(payload.EstimatedTokens, rt.settings.TokenThreshold)
		rt.log.Info(ctx, "delivery decided", map[string]interface{}{
			"channel": string(decision.Channel),
			"reason":  decision.Reason,
		})
		mode = string(decision.Channel)
	}

	sink := deps.SinkFactory()
	switch mode {
	case string(domain.ChannelClipboard):
		if err := sink.CopyToClipboard(payload.FullText); err != nil {
			return err
		}
		fmt.Fprintln(stderrOf(deps), "Prompt copied to clipboard.")
		return nil

	case string(domain.ChannelFile):
		if err := sink.SaveToFile(payload.FullText, outPath); err != nil {
			return err
		}
		fmt.Fprintf(stderrOf(deps), "Saved prompt to %s\n", outPath)
		return nil

	case "execute":
		return streamTo(ctx, deps, rt, providerName, payload.SystemPrompt, payload.UserPrompt)

	default:
		return fmt.Errorf("unknown delivery mode: %s", mode)
	}
}

// streamTo drives one provider session to completion, echoing fragments to
// stdout as they arrive. Configuration and transport failures produce
// distinct messages so the user can tell "fix your settings" apart from
// "check connectivity".
func streamTo(ctx context.Context, deps *Dependencies, rt *session, providerName, systemPrompt, userPrompt string) error {
	orchestrator := usecases.NewStreamOrchestrator(
		func(name string) (domain.StreamProvider, error) {
			return deps.ProviderFactory(name, rt.settings)
		},
		stdoutOf(deps),
		rt.log,
	)

	fmt.Fprintf(stderrOf(deps), "Connecting to %s...\n", strings.ToUpper(providerName))

	_, err := orchestrator.Run(ctx, providerName, systemPrompt, userPrompt)
	fmt.Fprintln(stdoutOf(deps))
	if err != nil {
		if errors.Is(err, domain.ErrProviderConfig) {
			return fmt.Errorf("configuration error: %w (check your .env file keys)", err)
		}
		return fmt.Errorf("connection error: %w", err)
	}
	return nil
}

// buildFilter combines the extract command's flags into an ExtractFilter.
func buildFilter(staged bool, limit int, since, until, author string, hashes []string) (domain.ExtractFilter, error) {
	if staged && (limit > 0 || since != "" || until != "" || author != "" || len(hashes) > 0) {
		return domain.ExtractFilter{}, errors.New("--staged cannot be combined with history filters")
	}

	if staged {
		return domain.ExtractFilter{Mode: domain.ModeStaged}, nil
	}
	if len(hashes) > 0 {
		return domain.ExtractFilter{Mode: domain.ModeHashes, Hashes: hashes}, nil
	}

	filter := domain.ExtractFilter{Mode: domain.ModeHistory, Limit: limit, Author: author}

	var err error
	if filter.Since, err = parseTimeFlag(since); err != nil {
		return domain.ExtractFilter{}, fmt.Errorf("invalid --since: %w", err)
	}
	if filter.Until, err = parseTimeFlag(until); err != nil {
		return domain.ExtractFilter{}, fmt.Errorf("invalid --until: %w", err)
	}
	return filter, nil
}

func parseTimeFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time format: %s", value)
}

func resolvePrompt(prompt, promptFile string, stdin io.Reader) (string, error) {
	switch {
	case prompt != "":
		return prompt, nil
	case promptFile != "":
		data, err := os.ReadFile(filepath.Clean(promptFile))
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
		}
		if len(data) == 0 {
			return "", errors.New("empty prompt: pass --prompt, --prompt-file, or pipe text on stdin")
		}
		return string(data), nil
	}
}

func repoPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func closeSource(ctx context.Context, log Logger, source domain.ChangeSource) {
	if err := source.Close(); err != nil {
		log.Warn(ctx, "failed to close repository", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func stdoutOf(deps *Dependencies) io.Writer {
	if deps.Stdout != nil {
		return deps.Stdout
	}
	return os.Stdout
}

func stderrOf(deps *Dependencies) io.Writer {
	if deps.Stderr != nil {
		return deps.Stderr
	}
	return os.Stderr
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
