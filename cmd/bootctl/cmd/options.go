package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/declanmills/pyboot"
	"github.com/spf13/cobra"
)

var optionsProtocol string

var optionsCmd = &cobra.Command{
	Use:   "options <archive>",
	Short: "Parse and print an archive's runtime options record as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		arc, err := pyboot.OpenArchive(args[0])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		defer arc.Close()

		protocol := pyboot.ProtocolNew
		if optionsProtocol == "legacy" {
			protocol = pyboot.ProtocolLegacy
		}

		opts, err := pyboot.ParseOptions(arc, protocol)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(opts); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	optionsCmd.Flags().StringVar(&optionsProtocol, "protocol", "new", "which protocol's encoding to report (\"new\" or \"legacy\")")
}
