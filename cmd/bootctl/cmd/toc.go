package cmd

import (
	"fmt"
	"os"

	"github.com/declanmills/pyboot"
	"github.com/spf13/cobra"
)

var tocCmd = &cobra.Command{
	Use:   "toc <archive>",
	Short: "Print every TOC entry in an archive",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		arc, err := pyboot.OpenArchive(args[0])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		defer arc.Close()

		it := arc.Iterator()
		for it.Next() {
			e := it.Entry()
			fmt.Printf("%-16s %-40s len=%-10d off=%-10d comp=%d\n",
				e.Type, e.Name, e.UncompressedLen, e.Offset, e.Compression)
		}
	},
}
