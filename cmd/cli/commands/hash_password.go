package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-ledger/pkg/auth"
)

// HashPasswordCmd creates the hashPassword command
func HashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hashPassword",
		Short: "Print a bcrypt hash of $" + PasswordEnv + " for the users section of the config",
		Args:  cobra.NoArgs,
		// Needs no config, store or login
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(PasswordEnv)
			if password == "" {
				return fmt.Errorf("%s is not set", PasswordEnv)
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
