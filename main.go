// Package main is the entry point for the gitdraft CLI application.
// gitdraft generates commit message candidates for staged changes using a
// configured language model provider and lets the user pick one.
package main

import (
	"io"
	"time"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/gitdraft/gitdraft/cmd"
	"github.com/gitdraft/gitdraft/internal/adapters/git"
	logadapter "github.com/gitdraft/gitdraft/internal/adapters/logger"
	"github.com/gitdraft/gitdraft/internal/adapters/output"
	"github.com/gitdraft/gitdraft/internal/adapters/provider"
	"github.com/gitdraft/gitdraft/internal/adapters/shell"
	"github.com/gitdraft/gitdraft/internal/domain"
	"github.com/gitdraft/gitdraft/internal/infrastructure/config"
	"github.com/gitdraft/gitdraft/internal/usecases"
)

func main() {
	// Create a single shared logger instance for the application
	zapLog := logger.NewZapLoggerFromConfig()
	adapter := logadapter.NewZapAdapter(zapLog)

	// Wire up production dependencies
	deps := &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return adapter
		},

		ConfigLoader: config.Load,

		ShellRunnerFactory: func(path string, _ cmd.Logger) domain.ShellRunner {
			return shell.NewRunner(path, adapter.Component("shell"))
		},

		CollectorFactory: func(path string, runner domain.ShellRunner, cfg *domain.Configuration, _ cmd.Logger) domain.ContextCollector {
			return git.NewCollector(path, runner, usecases.NewSecretRedactor(), adapter.Component("git"))
		},

		ProviderFactory: func(cfg *domain.Configuration, _ cmd.Logger) (domain.Provider, error) {
			return provider.New(cfg, adapter.Component("provider"))
		},

		InvokerFactory: func(_ cmd.Logger) domain.Invoker {
			return provider.NewInvoker(domain.DefaultInvokeTimeoutMS*time.Millisecond, adapter.Component("invoker"))
		},

		DisplayFactory: func(out io.Writer) domain.DisplaySink {
			return output.NewWriterWithOutput(out)
		},

		GeneratorFactory: func(
			collector domain.ContextCollector,
			prov domain.Provider,
			invoker domain.Invoker,
			display domain.DisplaySink,
			cfg *domain.Configuration,
			_ cmd.Logger,
		) domain.Generator {
			return usecases.NewCommitGenerator(collector, prov, invoker, display, cfg, adapter.Component("generator"))
		},
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}
