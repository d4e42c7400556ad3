package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/stockval/internal/importer"
	"github.com/cleared-dev/stockval/internal/valuation"
)

type valueOptions struct {
	account       int
	fbaFile       string
	warehouseFile string
	apply         bool
	push          bool
	draftID       int
	accountsFile  string
}

func newValueCommand(opts *rootOptions) *cobra.Command {
	var vo valueOptions

	cmd := &cobra.Command{
		Use:   "value",
		Short: "Value FBA and warehouse exports for an inventory account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if vo.fbaFile == "" && vo.warehouseFile == "" {
				return errors.New("at least one of --fba or --warehouse is required")
			}
			if vo.push && !vo.apply {
				return errors.New("--push requires --apply")
			}
			return runValue(cmd.Context(), cmd.OutOrStdout(), opts, vo)
		},
	}

	cmd.Flags().IntVar(&vo.account, "account", 0, "target inventory account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&vo.fbaFile, "fba", "", "FBA inventory export CSV")
	cmd.Flags().StringVar(&vo.warehouseFile, "warehouse", "", "warehouse inventory export CSV")
	cmd.Flags().BoolVar(&vo.apply, "apply", false, "apply the combined value to the account")
	cmd.Flags().BoolVar(&vo.push, "push", false, "write the applied value into the wizard draft")
	cmd.Flags().IntVar(&vo.draftID, "draft", 0, "draft ID to push into (default wizard_api.draft_id)")
	cmd.Flags().StringVar(&vo.accountsFile, "accounts", "", "account chart CSV (default: wizard API or accounts.csv)")

	return cmd
}

func runValue(ctx context.Context, out io.Writer, opts *rootOptions, vo valueOptions) error {
	p, err := openProject(ctx, opts, true)
	if err != nil {
		return err
	}
	defer p.Close()

	chart, err := p.chart(ctx, vo.accountsFile)
	if err != nil {
		return fmt.Errorf("loading account chart: %w", err)
	}

	helper := valuation.NewHelper(p.prices, importer.DefaultRegistry(), p.helperOptions(chart)...)
	if _, err := helper.Open(vo.account); err != nil {
		return err
	}
	defer helper.Close()

	runs := []struct {
		label string
		file  string
		run   func(context.Context, io.Reader) (valuation.Result, error)
	}{
		{"FBA", vo.fbaFile, helper.RunFBA},
		{"Warehouse", vo.warehouseFile, helper.RunWarehouse},
	}
	for _, r := range runs {
		if r.file == "" {
			continue
		}
		if err := runFile(ctx, out, r.label, r.file, r.run); err != nil {
			return err
		}
	}

	st := helper.State()
	cur := p.cfg.Valuation.Currency
	fmt.Fprintf(out, "FBA Value: %s\n", valuation.FormatCurrency(st.FBAValue, cur))
	fmt.Fprintf(out, "Warehouse Value: %s\n", valuation.FormatCurrency(st.WarehouseValue, cur))
	fmt.Fprintf(out, "Total Inventory Value: %s\n", valuation.FormatCurrency(st.Total(), cur))

	if !vo.apply {
		return nil
	}
	applied, err := helper.Apply()
	if err != nil {
		return err
	}
	v := applied.Applied
	fmt.Fprintf(out, "Applied inventory value of %s to account %d\n", valuation.FormatCurrency(v, cur), vo.account)

	if !vo.push {
		return nil
	}
	draftID := vo.draftID
	if draftID == 0 {
		draftID = p.cfg.WizardAPI.DraftID
	}
	if draftID == 0 {
		return errors.New("--push needs --draft or wizard_api.draft_id")
	}
	client, err := p.wizardClient()
	if err != nil {
		return err
	}
	if client == nil {
		return errors.New("--push needs wizard_api.base_url")
	}
	if err := client.PushBalance(ctx, draftID, vo.account, v); err != nil {
		return fmt.Errorf("pushing to draft %d: %w", draftID, err)
	}
	p.logger.Info("applied value pushed", zap.Int("draft_id", draftID), zap.Int("account_id", vo.account))
	fmt.Fprintf(out, "Saved %s to draft %d\n", v.StringFixed(2), draftID)
	return nil
}

func runFile(ctx context.Context, out io.Writer, label, path string, run func(context.Context, io.Reader) (valuation.Result, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s export: %w", label, err)
	}
	defer f.Close()

	res, err := run(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%s):\n", label, path)
	for _, line := range res.Summary {
		fmt.Fprintf(out, "  %s\n", line)
	}
	return nil
}
