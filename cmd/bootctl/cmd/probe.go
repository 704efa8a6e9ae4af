package cmd

import (
	"fmt"
	"os"

	"github.com/declanmills/pyboot"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <executable>",
	Short: "Check whether side-loading would be permitted for an executable",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ok, err := pyboot.ProbeSideloadMagic(args[0])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		if ok {
			fmt.Println("side-load magic present: side-loading is permitted")
		} else {
			fmt.Println("side-load magic absent: side-loading is disallowed")
		}
	},
}
