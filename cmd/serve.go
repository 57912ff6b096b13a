package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devang/mentor/internal/gateway"
	"github.com/devang/mentor/internal/llm"
	"github.com/devang/mentor/internal/logging"
	"github.com/devang/mentor/internal/server"
	"github.com/devang/mentor/internal/store"
	"github.com/devang/mentor/internal/tutor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutoring HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		subjectFlag, _ := cmd.Flags().GetString("subject")
		modeFlag, _ := cmd.Flags().GetString("mode")
		origins, _ := cmd.Flags().GetStringSlice("origins")

		subject, ok := tutor.ParseSubject(subjectFlag)
		if !ok {
			return fmt.Errorf("unknown subject %q (MATH, CHINESE, ENGLISH, SCIENCE)", subjectFlag)
		}
		mode, ok := tutor.ParseTaskMode(modeFlag)
		if !ok {
			return fmt.Errorf("unknown task mode %q (MISTAKE_ANALYSIS, CONCEPT_EXPLANATION, HOMEWORK_HELP)", modeFlag)
		}

		logger, err := logging.New(os.Getenv("MENTOR_LOG_MODE"))
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		llmCfg := llm.ConfigFromEnv()
		provider, err := llm.NewProvider(cmd.Context(), llmCfg, s.EventRepo())
		if err != nil {
			return fmt.Errorf("initialize inference provider: %w", err)
		}

		gw := gateway.New(provider, llmCfg.Sampling, logger)

		srv := server.New(server.Config{
			Gateway:      gw,
			Profiles:     s.ProfileRepo(),
			Transcripts:  s.TranscriptRepo(),
			Mistakes:     s.MistakeRepo(),
			Subject:      subject,
			Mode:         mode,
			AllowOrigins: origins,
			Logger:       logger,
		})

		fmt.Printf("mentor listening on %s (provider=%s model=%s subject=%s mode=%s)\n",
			addr, llmCfg.Provider, provider.ModelID(), subject, mode)
		return srv.Run(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("subject", string(tutor.SubjectMath), "Tutoring subject")
	serveCmd.Flags().String("mode", string(tutor.ModeHomeworkHelp), "Task mode for new sessions")
	serveCmd.Flags().StringSlice("origins", nil, "CORS allowlist for the browser client")
}
