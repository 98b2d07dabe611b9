package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/tradebox/src/bootstrap"
	"github.com/jiaming2012/tradebox/src/eventmodels"
)

type RunArgs struct {
	ConfigPath string
	EnvDir     string
	GoEnv      string
	OrderID    uint
}

type RunResult struct {
	Report *eventmodels.ExecutionReport
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/execute_order/main.go --order-id 12",
	Short: "Execute a stored order once and print its execution report",
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

		orderID, err := cmd.Flags().GetUint("order-id")
		if err != nil {
			log.Fatalf("error getting order-id: %v", err)
		}

		result, err := Run(RunArgs{ConfigPath: configPath, EnvDir: envDir, GoEnv: goEnv, OrderID: orderID})
		if err != nil {
			log.Errorf("Error: %v", err)
		}

		if result.Report != nil {
			reportJSON, err := json.MarshalIndent(result.Report, "", "  ")
			if err != nil {
				log.Errorf("Failed to marshal report: %v", err)
			} else {
				fmt.Println(string(reportJSON))
			}
		}

		if err != nil {
			os.Exit(1)
		}
	},
}

func Run(args RunArgs) (RunResult, error) {
	ctx := context.Background()

	app, err := bootstrap.Setup(ctx, bootstrap.Options{
		ConfigPath: args.ConfigPath,
		EnvDir:     args.EnvDir,
		GoEnv:      args.GoEnv,
		Login:      true,
	})
	if err != nil {
		return RunResult{}, err
	}

	defer func() {
		if err := app.Close(ctx); err != nil {
			log.Errorf("Main: failed to release resources: %v", err)
		}
	}()

	report, err := app.Engine.Execute(ctx, args.OrderID)
	return RunResult{Report: report}, err
}

func main() {
	runCmd.PersistentFlags().String("config", "config.yaml", "Path to the YAML configuration file.")
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().String("env-dir", os.Getenv("PROJECTS_DIR"), "Directory holding the .env files.")
	runCmd.PersistentFlags().Uint("order-id", 0, "The id of the stored order to execute.")

	runCmd.MarkPersistentFlagRequired("order-id")

	runCmd.Execute()
}
