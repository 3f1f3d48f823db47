package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"samtv/internal/samsung"
)

var keysCmd = &cobra.Command{
	Use:   "keys [filter]",
	Short: "List the keys that can be sent",
	Long:  `List every remote control key known to samtv, optionally only those containing filter.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := ""
		if len(args) > 0 {
			filter = strings.TrimPrefix(strings.ToUpper(args[0]), samsung.KeyPrefix)
		}

		count := 0
		for _, key := range samsung.Keys() {
			if filter != "" && !strings.Contains(strings.ToUpper(string(key)), filter) {
				continue
			}
			cmd.Println(key.Code())
			count++
		}

		if count == 0 {
			cmd.Printf("No keys match %q\n", args[0])
		}
		return nil
	},
}
