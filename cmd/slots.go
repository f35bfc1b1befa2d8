package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calbridge/internal/booking"
	"github.com/teemow/calbridge/internal/server"
	"github.com/teemow/calbridge/internal/slots"
)

func newSlotsCmd(loadConfig configLoader) *cobra.Command {
	var (
		date    string
		start   string
		end     string
		offline bool
		busy    []string
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print free slots for a day or time range",
		Long: `Print the free slot starts of the configured calendar, one per line.

Give either --date (YYYY-MM-DD, UTC) or both --start and --end (RFC3339).

With --offline the calendar is not contacted; busy intervals come from
repeated --busy START/END flags instead.`,
		Example: `  calbridge slots --date 2025-03-10
  calbridge slots --offline --date 2025-03-10 --busy 2025-03-10T10:00:00Z/2025-03-10T11:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			window, err := booking.ResolveWindow(map[string]any{
				booking.ParamDate:      date,
				booking.ParamStartTime: start,
				booking.ParamEndTime:   end,
			})
			if err != nil {
				return err
			}

			var free []time.Time
			if offline {
				intervals, err := parseBusy(busy)
				if err != nil {
					return err
				}
				free, err = slots.ComputeFreeSlots(window, intervals, cfg.SlotDuration())
				if err != nil {
					return err
				}
			} else {
				if len(busy) > 0 {
					return fmt.Errorf("--busy requires --offline")
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
				free, err = a.dispatcher.FreeSlots(ctx, window)
				if err != nil {
					return err
				}
			}

			printSlots(cmd.OutOrStdout(), free)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to check (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "Start of the range (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "End of the range (RFC3339)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Compute slots without contacting the calendar")
	cmd.Flags().StringArrayVar(&busy, "busy", nil, "Busy interval START/END in RFC3339 (repeatable, --offline only)")

	return cmd
}

// parseBusy parses START/END pairs.
func parseBusy(values []string) ([]slots.BusyInterval, error) {
	out := make([]slots.BusyInterval, 0, len(values))
	for _, v := range values {
		startS, endS, ok := strings.Cut(v, "/")
		if !ok {
			return nil, fmt.Errorf("invalid busy interval %q: expected START/END", v)
		}
		s, err := slots.ParseTimestamp(strings.TrimSpace(startS))
		if err != nil {
			return nil, fmt.Errorf("invalid busy interval %q: %w", v, err)
		}
		e, err := slots.ParseTimestamp(strings.TrimSpace(endS))
		if err != nil {
			return nil, fmt.Errorf("invalid busy interval %q: %w", v, err)
		}
		out = append(out, slots.BusyInterval{Start: s, End: e})
	}
	return out, nil
}

func printSlots(w io.Writer, free []time.Time) {
	if len(free) == 0 {
		fmt.Fprintln(w, booking.TextNoSlots)
		return
	}
	for _, t := range free {
		fmt.Fprintln(w, t.UTC().Format(time.RFC3339))
	}
}
