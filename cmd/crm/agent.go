package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crosscrm/crm/internal/agent"
	"github.com/crosscrm/crm/internal/analytics"
)

func newAgentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run AI agents against the CRM data",
	}
	cmd.AddCommand(newAgentRunCmd(a))
	return cmd
}

func newAgentRunCmd(a *app) *cobra.Command {
	var dealID, userID int64
	cmd := &cobra.Command{
		Use:       "run <agent>",
		Short:     "Run one agent and print its answer",
		Long:      "Run one agent and print its answer. Agents: " + strings.Join(agent.Names(), ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: agent.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			llm, err := a.newLLM()
			if err != nil {
				return err
			}
			runner := agent.NewRunner(s, analytics.NewService(s), llm, agent.WithLogger(a.log))

			req := agent.Request{Agent: args[0]}
			if dealID > 0 {
				req.DealID = &dealID
			}
			if userID > 0 {
				req.UserID = &userID
			}

			run, err := runner.Run(ctx, req)
			if errors.Is(err, agent.ErrDisabled) {
				return errors.New("no language model configured: set OPENAI_API_KEY")
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), run.Response)
			return err
		},
	}
	cmd.Flags().Int64Var(&dealID, "deal", 0, "deal ID (recommendation)")
	cmd.Flags().Int64Var(&userID, "user", 0, "user ID (daily_briefing)")
	return cmd
}
