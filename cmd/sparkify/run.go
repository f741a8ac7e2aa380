package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wdm0006/sparkify/pkg/config"
	"github.com/wdm0006/sparkify/pkg/credentials"
	"github.com/wdm0006/sparkify/pkg/etl"
	"github.com/wdm0006/sparkify/pkg/io/jsonio"
	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/session"
)

// jobFlags are shared by the stage commands. Values set on the command line
// override the config file.
type jobFlags struct {
	config      string
	credentials string
	envFile     string
	input       string
	output      string
	songGlob    string
	logGlob     string
	malformed   string
	preview     int
	logLevel    string
	driver      string
	endpoint    string
	region      string
	stagingDir  string
}

func (f *jobFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "", "job config file (.toml, .yaml or .json)")
	fs.StringVar(&f.credentials, "credentials", "", "INI file with an [AWS] section (default dl.cfg)")
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file with AWS keys, used when no credentials file is present")
	fs.StringVarP(&f.input, "input", "i", "", "input location (path, file://, s3:// or s3a://)")
	fs.StringVarP(&f.output, "output", "o", "", "output location")
	fs.StringVar(&f.songGlob, "song-glob", "", "song catalog pattern under the input")
	fs.StringVar(&f.logGlob, "log-glob", "", "event log pattern under the input")
	fs.StringVar(&f.malformed, "malformed", "", "malformed record policy: fail or skip")
	fs.IntVar(&f.preview, "preview", 0, "print the first N rows of every table")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.driver, "storage-driver", "", "client for bucket locations: s3 or minio")
	fs.StringVar(&f.endpoint, "endpoint", "", "S3-compatible endpoint for the minio driver")
	fs.StringVar(&f.region, "region", "", "bucket region")
	fs.StringVar(&f.stagingDir, "staging-dir", "", "local directory for parquet files before upload")
}

// settings merges the config file, the flags that were set and the
// defaults.
func (f *jobFlags) settings(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return cfg, err
		}
	}
	override := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	override("credentials", &cfg.Credentials, f.credentials)
	override("env-file", &cfg.EnvFile, f.envFile)
	override("input", &cfg.Input, f.input)
	override("output", &cfg.Output, f.output)
	override("song-glob", &cfg.SongGlob, f.songGlob)
	override("log-glob", &cfg.LogGlob, f.logGlob)
	override("malformed", &cfg.Malformed, f.malformed)
	override("log-level", &cfg.Log.Level, f.logLevel)
	override("storage-driver", &cfg.Storage.Driver, f.driver)
	override("endpoint", &cfg.Storage.Endpoint, f.endpoint)
	override("region", &cfg.Storage.Region, f.region)
	override("staging-dir", &cfg.StagingDir, f.stagingDir)
	if fs.Changed("preview") {
		cfg.Preview = f.preview
	}
	if err := cfg.Validate(); err != nil {
		return cfg, usageError{err: err}
	}
	return cfg, nil
}

// loadCredentials reads the credentials file, falling back to the env file.
// A missing default dl.cfg is not an error: the SDK chain is used instead.
func loadCredentials(cfg config.Config, explicit bool, log logger.Logger) (credentials.AWS, error) {
	if cfg.Credentials != "" {
		_, err := os.Stat(cfg.Credentials)
		switch {
		case err == nil:
			return credentials.Load(cfg.Credentials)
		case explicit || !errors.Is(err, os.ErrNotExist):
			return credentials.AWS{}, fmt.Errorf("credentials: %w", err)
		}
	}
	if cfg.EnvFile != "" {
		return credentials.FromEnvFile(cfg.EnvFile)
	}
	log.Info("No credentials file, using the default AWS credential chain")
	return credentials.AWS{}, nil
}

// newSession builds a session from this command's settings alone, so
// commands executed one after another in a process never share options.
func newSession(ctx context.Context, cfg config.Config, explicitCreds bool, stderr io.Writer) (*session.Session, error) {
	log, err := logger.NewLogger(logger.WithConfig(cfg.Log), logger.WithWriter(stderr))
	if err != nil {
		return nil, err
	}
	creds, err := loadCredentials(cfg, explicitCreds, log)
	if err != nil {
		return nil, err
	}
	policy, err := jsonio.ParsePolicy(cfg.Malformed)
	if err != nil {
		return nil, err
	}
	return session.New(ctx,
		session.WithLogger(log),
		session.WithCredentials(creds),
		session.WithMalformed(policy),
		session.WithStagingDir(cfg.StagingDir),
		session.WithStorage(session.StorageOptions{
			Driver:   cfg.Storage.Driver,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
			UseSSL:   cfg.Storage.UseSSL,
		}),
	)
}

type stageFn func(ctx context.Context, j *etl.Job) ([]etl.TableReport, error)

func newStageCommand(use, short string, run stageFn, stdout, stderr io.Writer) *cobra.Command {
	var flags jobFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.settings(cmd.Flags())
			if err != nil {
				return err
			}
			explicit := cmd.Flags().Changed("credentials") || (flags.config != "" && cfg.Credentials != config.Default().Credentials)
			s, err := newSession(cmd.Context(), cfg, explicit, stderr)
			if err != nil {
				return err
			}
			defer func() { _ = s.Logger().Sync() }()
			j := &etl.Job{
				Session: s,
				Input:   cfg.Input,
				Output:  cfg.Output,
				Options: etl.Options{
					SongGlob:   cfg.SongGlob,
					LogGlob:    cfg.LogGlob,
					Preview:    cfg.Preview,
					PreviewOut: stdout,
				},
			}
			reports, err := run(cmd.Context(), j)
			if err != nil {
				s.Logger().Error("Job failed", logger.Error(err))
				return err
			}
			for _, r := range reports {
				s.Logger().Info("Table written",
					logger.String("table", r.Table),
					logger.Int("rows", r.Result.Rows),
					logger.Int("files", r.Result.Files),
				)
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func NewRunCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return newStageCommand("run", "run the song-catalog stage, then the event-log stage",
		func(ctx context.Context, j *etl.Job) ([]etl.TableReport, error) { return j.Run(ctx) },
		stdout, stderr)
}

func NewSongsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return newStageCommand("songs", "write the songs and artists tables",
		func(ctx context.Context, j *etl.Job) ([]etl.TableReport, error) { return j.RunSongs(ctx) },
		stdout, stderr)
}

func NewEventsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return newStageCommand("events", "write the users, time and songplays tables from committed songs",
		func(ctx context.Context, j *etl.Job) ([]etl.TableReport, error) { return j.RunEvents(ctx) },
		stdout, stderr)
}

func init() {
	subcommandFns["run"] = NewRunCommand
	subcommandFns["songs"] = NewSongsCommand
	subcommandFns["events"] = NewEventsCommand
}
