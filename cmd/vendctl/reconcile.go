package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

var errInconsistent = errors.New("machine state is inconsistent")

func newReconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Re-read stock, coins and the purchase journal and report anomalies",
		Long: `Reconcile prints a JSON report of the persisted machine state: missing or
unknown coin rows, negative counts, drawer value and purchase totals.
It exits non-zero when anything inconsistent is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := a.svc.Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			err = enc.Encode(rep)
			if err != nil {
				return err
			}

			if !rep.Consistent() {
				return errInconsistent
			}

			return nil
		},
	}
}
