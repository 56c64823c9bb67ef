package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/echomind/ai/observability/logging"
	"github.com/hrygo/echomind/internal/profile"
	"github.com/hrygo/echomind/internal/version"
	"github.com/hrygo/echomind/server"
	"github.com/hrygo/echomind/server/auth"
	"github.com/hrygo/echomind/store"
	"github.com/hrygo/echomind/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "echomind",
		Short: "A reflective companion that remembers how conversations felt and surfaces insights from them.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !isRunningAsSystemdService() {
				// A missing .env file is fine.
				_ = godotenv.Load()
			}
			level, err := logging.ParseLevel(viper.GetString("log-level"))
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, viper.GetString("log-format"), level)))
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				printDatabaseError(err, instanceProfile)
				return fmt.Errorf("failed to create db driver: %w", err)
			}
			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				printDatabaseError(err, instanceProfile)
				return fmt.Errorf("failed to migrate: %w", err)
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			c := make(chan os.Signal, 1)
			// SIGTERM is the graceful shutdown signal for most process managers.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				return err
			}
			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			<-ctx.Done()
			return nil
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token for a user id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			userID, _ := cmd.Flags().GetInt32("user")
			expires, _ := cmd.Flags().GetDuration("expires")
			token, err := auth.GenerateAccessToken(userID, instanceProfile.Secret, expires)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.StringFull())
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("secret", "", "secret used to sign access tokens")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your echomind instance")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", `log format, "text" or "json"`)

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "secret", "instance-url", "log-level", "log-format"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("echomind")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	tokenCmd.Flags().Int32("user", 0, "user id the token identifies")
	tokenCmd.Flags().Duration("expires", 30*24*time.Hour, "token lifetime, 0 for no expiry")
	if err := tokenCmd.MarkFlagRequired("user"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(tokenCmd, versionCmd)
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:        viper.GetString("mode"),
		Addr:        viper.GetString("addr"),
		Port:        viper.GetInt("port"),
		Data:        viper.GetString("data"),
		Driver:      viper.GetString("driver"),
		DSN:         viper.GetString("dsn"),
		Secret:      viper.GetString("secret"),
		InstanceURL: viper.GetString("instance-url"),
		Version:     version.Version,
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("EchoMind %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("AI enabled: %t\n", profile.IsAIEnabled())

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError prints a hint for common database connection failures.
func printDatabaseError(err error, profile *profile.Profile) {
	fmt.Fprintln(os.Stderr, "\nDatabase connection failed")

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintln(os.Stderr, "PostgreSQL is not reachable. Check the DSN, or run with --driver=sqlite --data=./data")
	case strings.Contains(errMsg, "sslmode") || strings.Contains(errMsg, "SSL is not enabled"):
		fmt.Fprintln(os.Stderr, "Add ?sslmode=disable to your DSN.")
	case strings.Contains(errMsg, "password authentication failed"):
		fmt.Fprintln(os.Stderr, "PostgreSQL authentication failed. Check the credentials in ECHOMIND_DSN.")
	case strings.Contains(errMsg, "unable to open database file") || strings.Contains(errMsg, "out of memory"):
		fmt.Fprintf(os.Stderr, "SQLite could not open %s. Check that the data directory is writable.\n", profile.DSN)
	default:
		fmt.Fprintln(os.Stderr, "Error:", errMsg)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
