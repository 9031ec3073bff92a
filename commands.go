package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/beexo-community/beexy/internal/agent/model"
	"github.com/beexo-community/beexy/internal/knowledge"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

var (
	userID    int64
	userName  string
	kbSource  string
	errNoUser = errors.New("--user is required")

	app *App
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "beexy",
		Short:        "BeeXy, the Beexo Wallet community assistant",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
			if cfg.MetricsAddr != "" {
				serveMetrics(cfg.MetricsAddr)
			}
			app, err = NewApp(cmd.Context(), cfg)
			return err
		},
	}

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := app.Runner(cmd.Context())
			if err != nil {
				return err
			}
			reply := runner.Ask(cmd.Context(), model.QueryInput{
				UserID:   userID,
				UserName: userName,
				Question: strings.Join(args, " "),
			})
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation (/reset clears history, /exit quits)",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := app.Runner(cmd.Context())
			if err != nil {
				return err
			}
			return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), func(ctx context.Context, q string) string {
				return runner.Ask(ctx, model.QueryInput{UserID: userID, UserName: userName, Question: q})
			}, func(ctx context.Context) error {
				return runner.ClearHistory(ctx, userID)
			})
		},
	}

	kbCmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the knowledge base",
	}
	kbIngestCmd := &cobra.Command{
		Use:   "ingest [folder]",
		Short: "Index .md, .txt and .html files into the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := knowledge.IngestFolder(cmd.Context(), app.store, args[0], kbSource)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s documents (%s skipped, %s failed)\n",
				humanize.Comma(int64(res.Indexed)), humanize.Comma(int64(res.Skipped)), humanize.Comma(int64(res.Failed)))
			return nil
		},
	}
	kbIngestCmd.Flags().StringVar(&kbSource, "source", "local", "source label stored with each document")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage stored conversation history",
	}
	historyClearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget a user's stored conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("user") {
				return errNoUser
			}
			if err := clearHistory(cmd.Context(), app.HistoryRepo(), userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History cleared for user %d\n", userID)
			return nil
		},
	}

	for _, c := range []*cobra.Command{askCmd, chatCmd, historyClearCmd} {
		c.Flags().Int64Var(&userID, "user", 0, "user id the conversation belongs to")
	}
	for _, c := range []*cobra.Command{askCmd, chatCmd} {
		c.Flags().StringVar(&userName, "name", "", "display name of the user")
	}

	kbCmd.AddCommand(kbIngestCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(askCmd, chatCmd, kbCmd, historyCmd)
	return rootCmd
}

// clearHistory forgets the user's stored turns. The memory backend stores
// nothing, so there is nothing to clear.
func clearHistory(ctx context.Context, repo model.ConversationRepository, id int64) error {
	if repo == nil {
		return nil
	}
	clearer, ok := repo.(model.HistoryClearer)
	if !ok {
		return errors.New("history backend does not support clearing")
	}
	return clearer.ClearHistory(ctx, id)
}

// chatLoop reads one question per line until EOF or /exit.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, ask func(context.Context, string) string, reset func(context.Context) error) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/exit", "/quit":
			return nil
		case "/reset":
			if err := reset(ctx); err != nil {
				fmt.Fprintf(out, "No se pudo borrar el historial: %v\n", err)
			} else {
				fmt.Fprintln(out, "Historial borrado.")
			}
		default:
			fmt.Fprintln(out, ask(ctx, line))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
