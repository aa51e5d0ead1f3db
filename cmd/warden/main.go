package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardenhq/warden-analysis/internal/application"
	appai "github.com/wardenhq/warden-analysis/internal/application/ai"
	appbulk "github.com/wardenhq/warden-analysis/internal/application/bulk"
	"github.com/wardenhq/warden-analysis/internal/config"
	"github.com/wardenhq/warden-analysis/internal/domain/runs"
	aiopenai "github.com/wardenhq/warden-analysis/internal/infra/ai/openai"
	backendhttp "github.com/wardenhq/warden-analysis/internal/infra/backend"
	"github.com/wardenhq/warden-analysis/internal/infra/db/mysql"
	"github.com/wardenhq/warden-analysis/internal/infra/db/postgres"
	minioStore "github.com/wardenhq/warden-analysis/internal/infra/storage"
	"github.com/wardenhq/warden-analysis/internal/logging"
)

// errCommandFailed signals exit code 1 without printing a second error;
// the command already emitted its report.
var errCommandFailed = errors.New("command failed")

var (
	cfgPath      string
	outputFormat string
	debugLog     bool
)

var rootCmd = &cobra.Command{
	Use:           "warden",
	Short:         "Package, validate, upload and test detection content",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "warden.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text | json")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")

	rootCmd.AddCommand(uploadCmd, validateCmd, testCmd, benchmarkCmd, checkCmd)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// app holds the wired services one command invocation needs.
type app struct {
	cfg  *config.Config
	log  *zap.Logger
	bulk *appbulk.Service
	ai   *appai.Service
	runs runs.Repository
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}
	log, err := logging.New(debugLog || cfg.Logging.Debug)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	var client *backendhttp.Client
	if cfg.API.Host != "" {
		client = backendhttp.New(cfg.API.Host, cfg.API.Token, log)
	}

	var repo runs.Repository
	var errorsRepo runs.ErrorRepository
	if cfg.HasDatabase() {
		repo, errorsRepo, err = connectHistory(ctx, cfg)
		if err != nil {
			// History is optional; a dead database must not block uploads
			log.Warn("run history unavailable", zap.Error(err))
		}
	}

	var artifacts runs.ArtifactStore
	if cfg.HasMinio() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Warn("artifact store unavailable", zap.Error(err))
		} else {
			artifacts = store
		}
	}

	svc := &appbulk.Service{
		Clock:      application.SystemClock{},
		Repo:       repo,
		ErrorsRepo: errorsRepo,
		Artifacts:  artifacts,
		Log:        log,
		ChunkBytes: cfg.Upload.ChunkSizeBytes,
	}
	if client != nil {
		svc.Client = client
	}
	a.bulk = svc
	a.runs = repo

	if cfg.OpenAI.APIKey != "" {
		a.ai = appai.NewService(aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}
	return a, nil
}

func connectHistory(ctx context.Context, cfg *config.Config) (runs.Repository, runs.ErrorRepository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRunRepository(db), nil, nil
	default:
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		return mysql.NewRunRepository(db), mysql.NewRunErrorRepository(db), nil
	}
}

// emit prints the chosen representation and maps a non-zero code onto the
// process exit status.
func emit(code int, text string, jsonOut string, jsonErr error) error {
	if outputFormat == "json" {
		if jsonErr != nil {
			return jsonErr
		}
		fmt.Println(jsonOut)
	} else {
		fmt.Print(text)
	}
	if code != 0 {
		return errCommandFailed
	}
	return nil
}
