package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/profile-sync/internal/client"
	"github.com/janisto/profile-sync/internal/platform/config"
	applog "github.com/janisto/profile-sync/internal/platform/logging"
	"github.com/janisto/profile-sync/internal/service/profile"
)

var errNoToken = errors.New("no token: pass --token or set it in the config file")

// app carries the resolved settings and the session every command runs
// against.
type app struct {
	out    io.Writer
	errOut io.Writer

	endpoint   string
	token      string
	configPath string
	offline    bool
	verbose    bool

	file    fileConfig
	session profile.Session
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "profilectl",
		Short:         "View and edit your profile",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.endpoint, "endpoint", "", "profile API base URL")
	flags.StringVar(&a.token, "token", "", "bearer token")
	flags.StringVar(&a.configPath, "config", defaultConfigPath(), "config file")
	flags.BoolVar(&a.offline, "offline", false, "use placeholder profile data instead of the API")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newShowCmd(a),
		newEditCmd(a),
		newAvatarCmd(a),
		newLogoutCmd(a),
	)
	return root
}

// setup merges flags over the config file, installs the logger and builds
// the session.
func (a *app) setup(cmd *cobra.Command) error {
	file, err := loadFileConfig(a.configPath)
	if err != nil {
		return err
	}
	a.file = file

	flags := cmd.Flags()
	if !flags.Changed("endpoint") {
		a.endpoint = file.Endpoint
	}
	if !flags.Changed("token") {
		a.token = file.Token
	}
	if !flags.Changed("offline") {
		a.offline = file.Offline
	}

	logger := newLogger(a.errOut, a.verbose)
	cmd.SetContext(applog.WithLogger(cmd.Context(), logger))

	if a.offline {
		a.session = profile.ForUser(profile.NewFallbackGateway(), config.DefaultFallbackUserID)
		return nil
	}
	if a.token == "" {
		if cmd.Name() == "logout" {
			return nil
		}
		return errNoToken
	}
	opts := []client.Option{client.WithToken(a.token)}
	if a.endpoint != "" {
		opts = append(opts, client.WithBaseURL(a.endpoint))
	}
	a.session = client.NewClient(nil, opts...)
	return nil
}

// newLogger writes JSON logs to w. Without verbose only errors are shown.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.ErrorLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(applog.EncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
