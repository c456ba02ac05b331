package main

import (
	"context"
	"os"

	"github.com/contractorkingdom/stl-admin/pkg/log"
	"github.com/contractorkingdom/stl-admin/pkg/n8n"
	"github.com/contractorkingdom/stl-admin/pkg/store"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 3000

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "stl-admin",
		Usage:                 "Provision and manage Speed to Lead workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "n8n-api-url",
				Usage:    "Base URL of the n8n instance",
				Required: true,
				Sources:  cli.EnvVars("N8N_API_URL"),
			},
			&cli.StringFlag{
				Name:     "n8n-api-key",
				Usage:    "API key for the n8n instance",
				Required: true,
				Sources:  cli.EnvVars("N8N_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "template-workflow-id",
				Usage:   "ID of the n8n workflow used as the provisioning template",
				Value:   "jWiL3dfiI8RXqSAz",
				Sources: cli.EnvVars("TEMPLATE_WORKFLOW_ID"),
			},
			&cli.StringFlag{
				Name:    "supabase-url",
				Usage:   "Base URL of the Supabase project",
				Sources: cli.EnvVars("SUPABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "supabase-service-key",
				Usage:   "Supabase service-role key",
				Sources: cli.EnvVars("SUPABASE_SERVICE_ROLE_KEY"),
			},
			&cli.StringFlag{
				Name:    "supabase-anon-key",
				Usage:   "Supabase anon key, used when no service-role key is set",
				Sources: cli.EnvVars("SUPABASE_ANON_KEY"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Speed to Lead admin API")

			automation := n8n.NewClient(
				command.String("n8n-api-url"),
				command.String("n8n-api-key"),
				log.WithModule("n8n"),
			)

			dataStore := store.New(store.Config{
				URL:        command.String("supabase-url"),
				ServiceKey: command.String("supabase-service-key"),
				AnonKey:    command.String("supabase-anon-key"),
			}, log.WithModule("store"))

			api := NewAPI(
				logger,
				automation,
				dataStore,
				command.String("template-workflow-id"),
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
