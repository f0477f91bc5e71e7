package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/types"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Manage file tickets and their custody chain",
}

var ticketCreateCmd = &cobra.Command{
	Use:   "create [project-id] [title]",
	Short: "Create a file ticket; the creator is the first holder",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("description")
		t := unwrap(eng.CreateTicket(cmd.Context(), actorID(), service.CreateTicketInput{
			ProjectID:   args[0],
			Title:       args[1],
			Description: desc,
		}))
		emit(t, func() {
			fmt.Printf("%s Created %s: %s (%s)\n", successMark("✓"), boldText(t.TicketNumber), t.Title, t.ID)
		})
	},
}

var ticketTransferCmd = &cobra.Command{
	Use:   "transfer [ticket-id] [to-user-id]",
	Short: "Hand the ticket to another user (status becomes in_transit)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		t := unwrap(eng.TransferTicket(cmd.Context(), actorID(), args[0], args[1]))
		emit(t, func() {
			fmt.Printf("%s %s is in transit to %s\n", successMark("✓"), t.TicketNumber, t.CurrentHolder)
		})
	},
}

var ticketReceiveCmd = &cobra.Command{
	Use:   "receive [ticket-id]",
	Short: "Acknowledge custody of a ticket transferred to you",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := unwrap(eng.ReceiveTicket(cmd.Context(), actorID(), args[0]))
		emit(t, func() {
			fmt.Printf("%s Received %s\n", successMark("✓"), t.TicketNumber)
		})
	},
}

var ticketStatusCmd = &cobra.Command{
	Use:   "status [ticket-id] [status]",
	Short: "Set a ticket's processing status",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		t := unwrap(eng.UpdateTicketStatus(cmd.Context(), actorID(), args[0], types.TicketStatus(args[1])))
		emit(t, func() {
			fmt.Printf("%s %s is now %s\n", successMark("✓"), t.TicketNumber, t.Status)
		})
	},
}

var ticketLostCmd = &cobra.Command{
	Use:   "lost [ticket-id]",
	Short: "Mark a ticket as lost",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := unwrap(eng.MarkTicketLost(cmd.Context(), actorID(), args[0]))
		emit(t, func() {
			fmt.Printf("%s %s marked %s\n", warnMark("!"), t.TicketNumber, t.Status)
		})
	},
}

var ticketShowCmd = &cobra.Command{
	Use:   "show [ticket-id]",
	Short: "Show a file ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := unwrap(eng.GetTicket(cmd.Context(), actorID(), args[0]))
		emit(t, func() {
			fmt.Printf("%s: %s (%s)\n", boldText(t.TicketNumber), t.Title, t.ID)
			if t.Description != "" {
				fmt.Printf("  %s\n", t.Description)
			}
			fmt.Printf("  status: %s  holder: %s\n", t.Status, t.CurrentHolder)
		})
	},
}

var ticketLedgerCmd = &cobra.Command{
	Use:   "ledger [ticket-id]",
	Short: "Show a ticket's custody ledger, oldest transfer first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		transfers := unwrap(eng.TicketLedger(cmd.Context(), actorID(), args[0]))
		emit(transfers, func() {
			for _, tr := range transfers {
				received := warnMark("in transit")
				if tr.ReceivedAt != nil {
					received = "received " + tr.ReceivedAt.Format("2006-01-02 15:04")
				}
				fmt.Printf("%s  %s -> %s  (%s)\n",
					tr.TransferredAt.Format("2006-01-02 15:04"), tr.FromUserID, tr.ToUserID, received)
			}
		})
	},
}

var ticketListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List file tickets",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filter := types.TicketFilter{ProjectID: args[0]}
		if cmd.Flags().Changed("status") {
			s, _ := cmd.Flags().GetString("status")
			st := types.TicketStatus(s)
			filter.Status = &st
		}
		if cmd.Flags().Changed("holder") {
			filter.Holder, _ = cmd.Flags().GetString("holder")
		}
		if cmd.Flags().Changed("year") {
			filter.Year, _ = cmd.Flags().GetInt("year")
		}
		tickets := unwrap(eng.ListTickets(cmd.Context(), actorID(), filter))
		emit(tickets, func() {
			for _, t := range tickets {
				fmt.Printf("%s  %-12s %s  %s\n", t.TicketNumber, t.Status, t.Title, dimText("@"+t.CurrentHolder))
			}
		})
	},
}

func init() {
	ticketCreateCmd.Flags().String("description", "", "ticket description")

	ticketListCmd.Flags().String("status", "", "filter by status")
	ticketListCmd.Flags().String("holder", "", "filter by current holder")
	ticketListCmd.Flags().Int("year", 0, "filter by ticket year")

	ticketCmd.AddCommand(ticketCreateCmd, ticketTransferCmd, ticketReceiveCmd,
		ticketStatusCmd, ticketLostCmd, ticketShowCmd, ticketLedgerCmd, ticketListCmd)
}
