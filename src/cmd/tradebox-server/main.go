package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/tradebox/src/bootstrap"
	"github.com/jiaming2012/tradebox/src/eventproducers/ordersapi"
)

type RunArgs struct {
	ConfigPath string
	EnvDir     string
	GoEnv      string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/tradebox-server/main.go --config config.yaml",
	Short: "Serve the order management and execution HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		goEnv, err := cmd.Flags().GetString("go-env")
		if err != nil {
			log.Fatalf("error getting go-env: %v", err)
		}

		envDir, err := cmd.Flags().GetString("env-dir")
		if err != nil {
			log.Fatalf("error getting env-dir: %v", err)
		}

		if err := Run(RunArgs{ConfigPath: configPath, EnvDir: envDir, GoEnv: goEnv}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Run(args RunArgs) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.Setup(ctx, bootstrap.Options{
		ConfigPath: args.ConfigPath,
		EnvDir:     args.EnvDir,
		GoEnv:      args.GoEnv,
		Login:      true,
	})
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	ordersapi.SetupHandler(router, ordersapi.NewHandler(app.Engine, app.Repo, app.Orders))

	srv := &http.Server{
		Handler: otelhttp.NewHandler(router, "tradebox"),
		Addr:    app.Config.Server.Address,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Info("Main: init complete")

	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Main: failed to shut down server: %v", err)
	}

	// executions already claimed keep running until they settle
	cancel()

	if err := app.Close(shutdownCtx); err != nil {
		log.Errorf("Main: failed to release resources: %v", err)
	}

	log.Info("Main: gracefully stopped!")
	return nil
}

func main() {
	runCmd.PersistentFlags().String("config", "config.yaml", "Path to the YAML configuration file.")
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().String("env-dir", os.Getenv("PROJECTS_DIR"), "Directory holding the .env files.")

	runCmd.Execute()
}
