package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/objkernel/internal/incident"
	"github.com/roach88/objkernel/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
}

// FingerprintMismatch reports an incident whose stored fingerprint no
// longer matches its content.
type FingerprintMismatch struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Stored   string `json:"stored"`
	Computed string `json:"computed"`
}

// VerifyResult holds the verification result.
type VerifyResult struct {
	Checked    int                   `json:"checked"`
	Mismatches []FingerprintMismatch `json:"mismatches"`
	Valid      bool                  `json:"valid"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute incident fingerprints",
		Long: `Re-read the incident log and recompute every fingerprint from the stored
class, message, code, site, trace and causes.

Exit codes:
  0 - All fingerprints match
  1 - One or more fingerprints differ
  2 - Command error (database not found, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	incidents, err := st.ListIncidents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read incidents", err)
	}

	result := VerifyResult{
		Checked:    len(incidents),
		Mismatches: []FingerprintMismatch{},
	}
	for _, inc := range incidents {
		computed, err := incident.Fingerprint(inc)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to fingerprint incident %s", inc.ID), err)
		}
		formatter.VerboseLog("seq %d %s %s", inc.Seq, inc.ID, shortFingerprint(computed))
		if computed != inc.Fingerprint {
			result.Mismatches = append(result.Mismatches, FingerprintMismatch{
				ID:       inc.ID,
				Seq:      inc.Seq,
				Stored:   inc.Fingerprint,
				Computed: computed,
			})
		}
	}
	result.Valid = len(result.Mismatches) == 0

	failed := NewExitError(ExitFailure, fmt.Sprintf("%d fingerprint mismatch(es)", len(result.Mismatches)))

	if formatter.IsJSON() {
		if !result.Valid {
			if err := formatter.Failure(result, "E_FINGERPRINT", failed.Message); err != nil {
				return err
			}
			return failed
		}
		return formatter.Success(result)
	}

	for _, m := range result.Mismatches {
		fmt.Fprintf(formatter.Writer, "✗ seq %d %s: stored %s, computed %s\n", m.Seq, m.ID, shortFingerprint(m.Stored), shortFingerprint(m.Computed))
	}
	if !result.Valid {
		return failed
	}
	fmt.Fprintf(formatter.Writer, "✓ %d incident(s) verified\n", result.Checked)
	return nil
}
