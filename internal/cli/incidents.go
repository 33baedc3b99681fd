package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/objkernel/internal/incident"
	"github.com/roach88/objkernel/internal/store"
)

// IncidentsOptions holds flags for the incidents and show commands.
type IncidentsOptions struct {
	*RootOptions
	Database    string
	Fingerprint string // optional - only incidents with this fingerprint
}

// IncidentSummary is one line of the incident listing.
type IncidentSummary struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Fingerprint string `json:"fingerprint"`
	Class       string `json:"class"`
	Message     string `json:"message"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	Causes      int    `json:"causes"`
}

// IncidentsResult holds the incident listing.
type IncidentsResult struct {
	Incidents []IncidentSummary `json:"incidents"`
	Total     int               `json:"total"`
}

// NewIncidentsCommand creates the incidents command.
func NewIncidentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IncidentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "List recorded uncaught throwables",
		Long: `List the incident log in seq order.

Examples:
  objkernel incidents --db ./incidents.db
  objkernel incidents --db ./incidents.db --fingerprint 3f9a...
  objkernel incidents --db ./incidents.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIncidents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only incidents with this fingerprint")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IncidentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <incident-id>",
		Short: "Show one recorded incident",
		Long: `Print the fatal diagnostic and cause chain of one incident.

Example:
  objkernel show --db ./incidents.db 0190f2c4-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runIncidents(opts *IncidentsOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var incidents []incident.Incident
	if opts.Fingerprint != "" {
		incidents, err = st.IncidentsByFingerprint(ctx, opts.Fingerprint)
	} else {
		incidents, err = st.ListIncidents(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read incidents", err)
	}

	result := IncidentsResult{
		Incidents: make([]IncidentSummary, 0, len(incidents)),
		Total:     len(incidents),
	}
	for _, inc := range incidents {
		result.Incidents = append(result.Incidents, summarize(inc))
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	if len(incidents) == 0 {
		fmt.Fprintln(formatter.Writer, "No incidents recorded.")
		return nil
	}
	for _, s := range result.Incidents {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  %s\n", s.Seq, s.ID, shortFingerprint(s.Fingerprint), headline(s))
	}
	fmt.Fprintf(formatter.Writer, "\n%d incident(s)\n", result.Total)
	return nil
}

func runShow(opts *IncidentsOptions, id string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	inc, err := st.ReadIncident(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("incident %s not found", id), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("incident %s not found", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read incident", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(inc)
	}

	writeIncidentText(formatter, inc)
	if len(inc.Causes) > 0 {
		fmt.Fprintln(formatter.Writer, "\ncauses:")
		for _, c := range inc.Causes {
			fmt.Fprintf(formatter.Writer, "  %d. %s: %s (%s:%d)\n", c.Depth, c.Class, c.Message, c.File, c.Line)
		}
	}
	if opts.Verbose {
		fmt.Fprintf(formatter.Writer, "\nkernel %s\n", inc.KernelVersion)
	}
	return nil
}

func summarize(inc incident.Incident) IncidentSummary {
	return IncidentSummary{
		ID:          inc.ID,
		Seq:         inc.Seq,
		Fingerprint: inc.Fingerprint,
		Class:       inc.Class,
		Message:     inc.Message,
		File:        inc.File,
		Line:        inc.Line,
		Causes:      len(inc.Causes),
	}
}

// headline renders "Class: message at file:line".
func headline(s IncidentSummary) string {
	text := s.Class
	if s.Message != "" {
		text += ": " + s.Message
	}
	return fmt.Sprintf("%s at %s:%d", text, s.File, s.Line)
}
