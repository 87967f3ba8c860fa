package cli

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/rprtr258/syncwatch/internal/core"
	"github.com/rprtr258/syncwatch/internal/core/settings"
	"github.com/rprtr258/syncwatch/internal/core/watcher"
	"github.com/rprtr258/syncwatch/internal/infra/errors"
	"github.com/rprtr258/syncwatch/internal/infra/fsnotify"
	infraLog "github.com/rprtr258/syncwatch/internal/infra/log"
	"github.com/rprtr258/syncwatch/internal/infra/poll"
)

const EnvPath = "SYNCWATCH_PATH"

// exporter runs export command for settled path.
type exporter struct {
	command string
	prog    *syntax.File
	env     []string
}

func newExporter(command, envFile string) (exporter, error) {
	env := os.Environ()
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return exporter{}, errors.Wrapf(err, "read env file %s", envFile)
		}
		for k, v := range vars {
			env = append(env, k+"="+v)
		}
	}

	var prog *syntax.File
	if command != "" {
		var err error
		prog, err = syntax.NewParser().Parse(strings.NewReader(command), "run")
		if err != nil {
			return exporter{}, errors.Wrapf(err, "parse command %q", command)
		}
	}

	return exporter{
		command: command,
		prog:    prog,
		env:     env,
	}, nil
}

func (e exporter) run(ctx context.Context, path string) error {
	runner, err := interp.New(
		interp.Env(expand.ListEnviron(append(slices.Clip(e.env), EnvPath+"="+path)...)),
		interp.StdIO(nil, os.Stdout, os.Stderr),
	)
	if err != nil {
		return errors.Wrap(err, "create shell runner")
	}

	return runner.Run(ctx, e.prog)
}

// callback reports settled path. Export command is interrupted once ctx is
// done.
func (e exporter) callback(ctx context.Context, path string) func() {
	return func() {
		log.Info().Str("path", path).Msg("path settled")
		if e.prog == nil {
			return
		}

		if err := e.run(ctx, path); err != nil {
			log.Error().
				Err(err).
				Str("path", path).
				Str("command", e.command).
				Msg("export command failed")
		}
	}
}

func newWatchSet(config core.Config) (watcher.WatchSet, error) {
	switch config.Backend {
	case core.BackendFSNotify:
		return fsnotify.New()
	case core.BackendPoll:
		return poll.New(config.PollInterval), nil
	default:
		return nil, errors.Newf("unknown backend %q, expected %q or %q", config.Backend, core.BackendFSNotify, core.BackendPoll)
	}
}

func newCmdWatch() *cobra.Command {
	config := core.DefaultConfig
	var backend, command, envFile string
	var fromSettingsRoot bool
	cmd := &cobra.Command{
		Use:   "watch path...",
		Short: "watch files and directories, report each once writes to it settle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Backend = core.Backend(backend)
			infraLog.Setup(os.Stderr, config.Debug)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gate := settings.NewGate(config.SettingsFile)

			exp, err := newExporter(command, envFile)
			if err != nil {
				return err
			}

			targets := make(watcher.Targets, len(args))
			for _, arg := range args {
				path := arg
				if fromSettingsRoot {
					resolved, errResolve := gate.Resolve(arg)
					if errResolve != nil {
						return errors.Wrapf(errResolve, "resolve %s", arg)
					}
					path = resolved
				}
				targets[path] = exp.callback(ctx, path)
			}

			set, err := newWatchSet(config)
			if err != nil {
				return err
			}

			opts := []watcher.Option{
				watcher.WithQuietPeriod(config.QuietPeriod),
				watcher.WithWatchSet(set),
			}
			if config.SkipUnchanged {
				opts = append(opts, watcher.WithDigest(afero.NewOsFs()))
			}

			w, err := watcher.New(targets, gate, opts...)
			if err != nil {
				return errors.Wrap(err, "start watcher")
			}

			<-ctx.Done()
			log.Info().Msg("stopping")

			return w.Shutdown()
		},
	}
	addFlagSettings(cmd, &config.SettingsFile)
	cmd.Flags().StringVar(&backend, "backend", string(config.Backend), "change notification backend: fsnotify or poll")
	cmd.Flags().DurationVar(&config.QuietPeriod, "quiet", config.QuietPeriod, "time without changes after which a path is settled")
	cmd.Flags().DurationVar(&config.PollInterval, "poll-interval", config.PollInterval, "scan interval of poll backend, at most "+poll.MaxInterval.String()+", stopping waits for up to one interval")
	cmd.Flags().BoolVar(&config.SkipUnchanged, "skip-unchanged", config.SkipUnchanged, "do not report paths whose content did not change")
	cmd.Flags().BoolVar(&config.Debug, "debug", config.Debug, "log every raw event")
	cmd.Flags().StringVar(&command, "run", "", "shell command to run for each settled path, path is passed in $"+EnvPath)
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file with extra environment for --run command")
	cmd.Flags().BoolVar(&fromSettingsRoot, "from-settings-root", false, "resolve relative paths against settings root instead of working directory")
	return cmd
}
