// gitbrief turns local Git history into structured prompts for language
// models and streams them to local or cloud backends.
package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/gitbrief/gitbrief/cmd"
	"github.com/gitbrief/gitbrief/internal/adapters/git"
	"github.com/gitbrief/gitbrief/internal/adapters/logger"
	"github.com/gitbrief/gitbrief/internal/adapters/output"
	"github.com/gitbrief/gitbrief/internal/adapters/provider"
	"github.com/gitbrief/gitbrief/internal/adapters/tokenizer"
	"github.com/gitbrief/gitbrief/internal/domain"
	"github.com/gitbrief/gitbrief/internal/infrastructure/config"
	"github.com/gitbrief/gitbrief/internal/infrastructure/recent"
	"github.com/gitbrief/gitbrief/internal/infrastructure/template"
)

func main() {
	cmd.SetDefaultDependencies(defaultDependencies())
	cmd.Execute()
}

// defaultDependencies wires the production adapters into the command layer.
func defaultDependencies() *cmd.Dependencies {
	deps := &cmd.Dependencies{
		ConfigLoader: config.Load,
		LoggerFactory: func(level string) cmd.Logger {
			log, err := logger.New(level)
			if err != nil {
				return logger.NewZapAdapter(zap.NewNop())
			}
			return log
		},
		SourceFactory: func(path string, log cmd.Logger) (domain.ChangeSource, error) {
			return git.NewGoGitSource(path, log)
		},
		TemplateFinderFactory: func(dir string, log cmd.Logger) cmd.TemplateFinder {
			return template.NewLoader(dir, log)
		},
		CounterFactory: func() domain.TokenCounter {
			return tokenizer.New()
		},
		ProviderFactory: provider.New,
		SinkFactory: func() cmd.Sink {
			return output.NewWriter()
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	// The recent-path store is a convenience; losing it never blocks a run.
	if store, err := recent.NewStore(); err == nil {
		deps.RecentStore = store
	}

	return deps
}
