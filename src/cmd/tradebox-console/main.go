package main

import (
	"context"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/tradebox/src/bootstrap"
	"github.com/jiaming2012/tradebox/src/console"
)

type RunArgs struct {
	ConfigPath string
	EnvDir     string
	GoEnv      string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/tradebox-console/main.go --config config.yaml",
	Short: "Manage and execute orders from an interactive menu",
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
	ctx := context.Background()

	app, err := bootstrap.Setup(ctx, bootstrap.Options{
		ConfigPath: args.ConfigPath,
		EnvDir:     args.EnvDir,
		GoEnv:      args.GoEnv,
		Login:      true,
	})
	if err != nil {
		return err
	}

	defer func() {
		if err := app.Close(ctx); err != nil {
			log.Errorf("Main: failed to release resources: %v", err)
		}
	}()

	// the console owns the terminal; entries still reach the daily log file
	if app.Config.Logging.Dir != "" {
		log.SetOutput(io.Discard)
	}

	c := console.New(console.Options{
		In:          os.Stdin,
		Out:         os.Stdout,
		Orders:      app.Orders,
		Executor:    app.Engine,
		Gateway:     app.Gateway,
		Credentials: bootstrap.Credentials(app.Config.Brokerage),
		PublicURL:   app.Config.Server.PublicURL,
	})

	return c.Run(ctx)
}

func main() {
	runCmd.PersistentFlags().String("config", "config.yaml", "Path to the YAML configuration file.")
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().String("env-dir", os.Getenv("PROJECTS_DIR"), "Directory holding the .env files.")

	runCmd.Execute()
}
