package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bootctl",
	Short: "bootctl inspects pyboot package archives",
	Long:  `bootctl opens a pyboot package archive independently of the bootloader's own startup path, for diagnosing TOC contents, runtime options, and side-load eligibility.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bootctl: a pyboot archive inspector. Use 'bootctl --help' for more information.")
	},
}

// Execute runs the root command and adds child commands.
func Execute() {
	rootCmd.AddCommand(tocCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(probeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
