package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "ra",
		Short:         "RAG Agents CLI (ra): manage agents, ingest folders and chat with your documents",
		Long:          "ra (RAG Agents CLI) talks to a RAG backend: it manages agents bound to drive folders, starts and watches ingestion, browses folders and chats with the active agent, headlessly or in an interactive terminal UI.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.flags.backendURL, "backend-url", "", "backend base URL (overrides backend.url)")
	flags.StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAgentCmd(app),
		newBrowseCmd(app),
		newIngestCmd(app),
		newChatCmd(app),
		newSettingsCmd(app),
		newStatusCmd(app),
		newUICmd(app),
		newDevBackendCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
