package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mark3labs/raml2go/internal/rules"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the registered controller and body rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRules(cmd.OutOrStdout())
		},
	}
}

func printRules(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tDESCRIPTION")
	for _, id := range rules.Controllers.IDs() {
		fmt.Fprintf(tw, "controller\t%s%s\t%s\n", id, defaultMark(id == rules.Controllers.Default()), rules.Controllers.Describe(id))
	}
	for _, id := range rules.Bodies.IDs() {
		fmt.Fprintf(tw, "body\t%s%s\t%s\n", id, defaultMark(id == rules.Bodies.Default()), rules.Bodies.Describe(id))
	}
	return tw.Flush()
}

func defaultMark(ok bool) string {
	if ok {
		return " (default)"
	}
	return ""
}
