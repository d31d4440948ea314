package main

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"nsx-policy-maker/internal/emit"
	"nsx-policy-maker/internal/engine"
	"nsx-policy-maker/internal/output"
)

func newIPSetCmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "ipset <input_file>",
		Short: "Convert an IP set sheet into shared nsxt_policy_group resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIPSet(cmd, args[0], dump)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the IP sets instead of writing them")
	return cmd
}

func (a *app) runIPSet(cmd *cobra.Command, name string, dump bool) error {
	src, input, closeSource, err := a.openSource(name)
	if err != nil {
		return err
	}
	defer closeSource()

	out := newPrinter(cmd.OutOrStdout())
	out.Info("Reading input file: %s", input)
	rows, err := src.IPSetRows(input)
	if err != nil {
		return err
	}

	sets, err := engine.BuildIPSets(rows)
	if err != nil {
		return err
	}
	if dump {
		dumpConfig.Fdump(cmd.OutOrStdout(), sets)
		return nil
	}

	doc := emit.NewIPSetDocument()
	for _, set := range sets {
		if !doc.Add(set) {
			slog.Warn("Duplicate IP set, the later row replaces the earlier one", "group", set.Name, "key", emit.SanitizeIdentifier(set.Name))
		}
	}
	slog.Info("Built IP sets", "count", doc.Len())

	path := filepath.Join(a.cfg.OutputDir, a.cfg.IPSetFile)
	err = output.Writer{Policy: a.overwrite}.Write(path, doc)
	if errors.Is(err, output.ErrDeclined) {
		out.Skipped("Operation cancelled by user")
		return nil
	}
	if err != nil {
		return err
	}
	out.Success("Successfully created HCL file: %s", path)
	return nil
}
