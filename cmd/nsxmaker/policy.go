package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"nsx-policy-maker/internal/emit"
	"nsx-policy-maker/internal/engine"
	"nsx-policy-maker/internal/model"
	"nsx-policy-maker/internal/output"
	"nsx-policy-maker/internal/parser"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func newPolicyCmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "policy <input_file>",
		Short: "Convert the first sheet of a workbook into one security policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPolicy(cmd, args[0], dump)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the assembled policy instead of writing it")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var dump, combined bool
	cmd := &cobra.Command{
		Use:   "batch <input_file>",
		Short: "Convert every sheet of a workbook into its own security policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args[0], dump, combined)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the assembled policies instead of writing them")
	cmd.Flags().BoolVar(&combined, "combined", false, "Also write one document holding every policy")
	return cmd
}

func (a *app) loadSheets(name string) ([]parser.Sheet, error) {
	src, input, closeSource, err := a.openSource(name)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	slog.Info("Loading policy sheets", "provider", a.cfg.Provider, "input", input)
	sheets, err := src.PolicySheets(input)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no valid policies found in %s", input)
	}
	slog.Info("Loaded policy sheets", "count", len(sheets))
	return sheets, nil
}

func assemble(asm *engine.Assembler, sheet parser.Sheet) (model.Policy, error) {
	rules := engine.NamedRules(sheet.Rules)
	slog.Info("Processing policy", "sheet", sheet.Name, "policy", engine.PolicyName(sheet.Header), "rules", len(rules))
	policy, err := asm.Assemble(sheet.Header, rules)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) && verr.Sheet == "" {
			verr.Sheet = sheet.Name
		}
		return model.Policy{}, err
	}
	return policy, nil
}

func (a *app) runPolicy(cmd *cobra.Command, name string, dump bool) error {
	sheets, err := a.loadSheets(name)
	if err != nil {
		return err
	}
	if len(sheets) > 1 {
		slog.Info("Workbook has several sheets, using the first", "sheet", sheets[0].Name, "ignored", len(sheets)-1)
	}

	asm := &engine.Assembler{Mode: engine.ModeSingle}
	policy, err := assemble(asm, sheets[0])
	if err != nil {
		return err
	}

	out := newPrinter(cmd.OutOrStdout())
	if dump {
		dumpConfig.Fdump(cmd.OutOrStdout(), policy)
		return nil
	}

	path := filepath.Join(a.cfg.OutputDir, fileName(policy.DisplayName)+".tf.json")
	err = output.Writer{Policy: a.overwrite}.Write(path, emit.NewPolicyDocument(policy))
	if errors.Is(err, output.ErrDeclined) {
		out.Skipped("Operation cancelled by user")
		return nil
	}
	if err != nil {
		return err
	}
	out.Success("Successfully created %s", path)
	return nil
}

// baseName is the application prefix of a policy name, up to the first dash.
func baseName(policy string) string {
	base, _, _ := strings.Cut(policy, "-")
	if base = strings.TrimSpace(base); base == "" {
		return "default-application"
	}
	return base
}

func (a *app) runBatch(cmd *cobra.Command, name string, dump, combined bool) error {
	sheets, err := a.loadSheets(name)
	if err != nil {
		return err
	}

	asm := &engine.Assembler{Mode: engine.ModeBatch, Sequences: engine.NewSequenceSet()}
	policies := make([]model.Policy, 0, len(sheets))
	for _, sheet := range sheets {
		policy, err := assemble(asm, sheet)
		if err != nil {
			return err
		}
		policies = append(policies, policy)
	}

	if dump {
		dumpConfig.Fdump(cmd.OutOrStdout(), policies)
		return nil
	}

	out := newPrinter(cmd.OutOrStdout())
	base := baseName(policies[0].DisplayName)
	dir := filepath.Join(a.cfg.ApplicationsDir, fileName(base))
	out.Info("Writing policies to %s", dir)

	w := output.Writer{Policy: a.overwrite}
	all := emit.NewPolicyDocument()
	for _, policy := range policies {
		if !all.Add(policy) {
			slog.Warn("Duplicate policy name, the later sheet replaces the earlier one", "policy", policy.DisplayName)
		}
	}

	written := 0
	for _, policy := range all.Policies() {
		path := filepath.Join(dir, fileName(policy.DisplayName)+"_policy.tf.json")
		err := w.Write(path, emit.NewPolicyDocument(policy))
		if errors.Is(err, output.ErrDeclined) {
			out.Skipped("Skipped writing %s", path)
			continue
		}
		if err != nil {
			return err
		}
		out.Success("Successfully created %s", path)
		written++
	}

	if combined {
		path := filepath.Join(dir, fileName(base)+"_policies.tf.json")
		err := w.Write(path, all)
		switch {
		case errors.Is(err, output.ErrDeclined):
			out.Skipped("Skipped writing %s", path)
		case err != nil:
			return err
		default:
			out.Success("Successfully created %s", path)
		}
	}

	slog.Info("Batch complete", "policies", all.Len(), "written", written)
	return nil
}
