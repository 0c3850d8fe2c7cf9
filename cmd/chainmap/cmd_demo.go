package main

import (
	"fmt"
	"io"

	"github.com/alextanhongpin/chainmap"
	"github.com/spf13/cobra"
)

var cmdDemo = &cobra.Command{
	Use:   "demo",
	Short: "Run the demonstration sequence",
	Long: `
The "demo" command creates a default map (16 buckets, load factor 0.75) and
prints the result of each call in a fixed put/get/remove sequence.
`,
	DisableAutoGenTag: true,
	Args:              cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd.OutOrStdout())
	},
}

func init() {
	cmdRoot.AddCommand(cmdDemo)
}

func runDemo(w io.Writer) error {
	m := chainmap.Default[string, int]()

	show := func(call string, v any, ok bool) {
		if !ok {
			fmt.Fprintf(w, "%-18s -> <absent>\n", call)
			return
		}
		fmt.Fprintf(w, "%-18s -> %v\n", call, v)
	}

	fmt.Fprintf(w, "%-18s -> %v\n", "IsEmpty()", m.IsEmpty())
	fmt.Fprintf(w, "%-18s -> %v\n", "Size()", m.Size())

	v, ok := m.Put("Tom", 5)
	show(`Put("Tom", 5)`, v, ok)
	v, ok = m.Put("Jerry", 10)
	show(`Put("Jerry", 10)`, v, ok)
	v, ok = m.Get("Tom")
	show(`Get("Tom")`, v, ok)
	v, ok = m.Put("Tom", 10)
	show(`Put("Tom", 10)`, v, ok)
	fmt.Fprintf(w, "%-18s -> %v\n", "Size()", m.Size())
	v, ok = m.Remove("Tom")
	show(`Remove("Tom")`, v, ok)
	v, ok = m.Get("Tom")
	show(`Get("Tom")`, v, ok)
	fmt.Fprintf(w, "%-18s -> %v\n", "Size()", m.Size())

	return nil
}
