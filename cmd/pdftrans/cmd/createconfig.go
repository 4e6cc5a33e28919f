package cmd

import (
	"github.com/spf13/cobra"

	"github.com/boyingliu01/pdf-translation/internal/config"
)

var createConfigCmd = &cobra.Command{
	Use:   "create-config",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteExample(cfgFile); err != nil {
			return err
		}
		cmd.Printf("Example config written to %s\n", cfgFile)
		cmd.Println("Edit it and fill in your API key.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createConfigCmd)
}
