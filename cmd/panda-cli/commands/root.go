package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"pandassist/internal/components/chrono"
	"pandassist/internal/components/telemetry"
	"pandassist/internal/scrapers/panda"
	"pandassist/internal/service"
	"pandassist/internal/snapshot"
	"pandassist/pkg/configutil"
	"pandassist/pkg/restyutil"

	"github.com/spf13/cobra"
)

// commands annotated with this run without a config, a database or a session
const offlineAnnotation = "offline"

var (
	configPath string
	verbose    bool
	dumpHttp   string
	clearCache bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug information.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every http exchange into this directory.")
	rootCmd.PersistentFlags().BoolVar(&clearCache, "clear-cache", false, "Drop every cached snapshot before running.")
}

type appKeyType int

var appKey appKeyType

type app struct {
	config   Config
	clock    chrono.API
	tel      telemetry.API
	database *sql.DB
	client   *panda.Client
	user     *panda.User
	service  *service.Service
}

func getApp(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey).(*app)
}

func setup(ctx context.Context) (*app, error) {
	config, err := configutil.ReadValidated[Config](configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return nil, err
	}
	tel := telemetry.SlogAPI{}

	opts := config.clientOptions()
	if dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(dumpHttp)
		if err != nil {
			return nil, fmt.Errorf("create http dump directory: %w", err)
		}
		opts.Session.Output = output
	}
	client, err := panda.NewClient(opts, clock, tel)
	if err != nil {
		return nil, err
	}
	user, err := client.NewUser(panda.Credential{
		Username: config.Username,
		Password: config.Password,
	})
	if err != nil {
		return nil, err
	}

	database, err := config.Db.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	err = snapshot.Migrate(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	store := snapshot.NewStore(database, clock, tel)

	svc := service.NewService(client, store, user, clock, tel, service.Options{
		MaxAge: time.Duration(config.CacheMinutes) * time.Minute,
	})

	return &app{
		config:   config,
		clock:    clock,
		tel:      tel,
		database: database,
		client:   client,
		user:     user,
		service:  svc,
	}, nil
}

var rootCmd = &cobra.Command{
	Use:           "panda-cli",
	Short:         "panda-cli lists the sites and upcoming assignments of a PandA account.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		if cmd.Annotations[offlineAnnotation] == "true" {
			return nil
		}

		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		if clearCache {
			err = a.service.ClearCache(cmd.Context())
			if err != nil {
				a.database.Close()
				return fmt.Errorf("clear cache: %w", err)
			}
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		a, ok := cmd.Context().Value(appKey).(*app)
		if ok {
			a.database.Close()
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}
