package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/calbridge/internal/booking"
	"github.com/teemow/calbridge/internal/server"
)

func newBookCmd(loadConfig configLoader) *cobra.Command {
	var (
		summary     string
		start       string
		end         string
		email       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		Long: `Create an event on the configured calendar and print the confirmation.

An attendee given with --email receives an invitation.`,
		Example: `  calbridge book --summary "Dentist" --start 2025-03-10T14:00:00Z --end 2025-03-10T14:30:00Z`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			req, err := booking.ParseAppointment(map[string]any{
				booking.ParamSummary:     summary,
				booking.ParamStart:       start,
				booking.ParamEnd:         end,
				booking.ParamEmail:       email,
				booking.ParamDescription: description,
			})
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger, instrumentationConfig())
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), server.DefaultShutdownTimeout)
				defer cancel()
				_ = a.Close(ctx)
			}()

			ctx := booking.ContextWithSource(cmd.Context(), booking.SourceCLI)
			event, err := a.dispatcher.Book(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, booking.Confirmation(req.Summary, req.Start))
			fmt.Fprintf(out, "Event ID: %s\n", event.ID)
			if event.HTMLLink != "" {
				fmt.Fprintf(out, "Link: %s\n", event.HTMLLink)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "Title of the appointment (required)")
	cmd.Flags().StringVar(&start, "start", "", "Start time in RFC3339 (required)")
	cmd.Flags().StringVar(&end, "end", "", "End time in RFC3339 (required)")
	cmd.Flags().StringVar(&email, "email", "", "Attendee email address to invite")
	cmd.Flags().StringVar(&description, "description", "", "Event description")

	return cmd
}
