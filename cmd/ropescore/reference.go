package main

import (
	"github.com/spf13/cobra"

	"github.com/verte-zerg/ropescore/internal/reference"
)

var referenceSection string

func newReferenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Print level and point value reference tables",
		Args:  cobra.NoArgs,
		RunE:  runReferenceCmd,
	}
	cmd.Flags().StringVar(&referenceSection, "section", reference.SectionAll, "section to print (points, gymnastics, multiples, all)")
	return cmd
}

func runReferenceCmd(cmd *cobra.Command, _ []string) error {
	cat, err := reference.Load()
	if err != nil {
		return err
	}
	return cat.Render(cmd.OutOrStdout(), referenceSection)
}
