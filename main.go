package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	// Invite flags
	inviteCount int
)

// rootCmd serves by default
var rootCmd = &cobra.Command{
	Use:   "sociallink",
	Short: "sociallink - invite-only profile pages",
	Long: `sociallink hosts personal profile pages: cosmetics, links, embeds and
uploaded media, with invite-gated registration and admin moderation.

Run without arguments to start the HTTP server.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
		return nil
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant [username] [permission]",
	Short: "Grant a permission (admin, invite, moderate, badges) to a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runGrant,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke [username] [permission]",
	Short: "Revoke a permission from a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runRevoke,
}

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Manage invites",
}

var inviteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create invites without an issuer and print their tokens",
	Args:  cobra.NoArgs,
	RunE:  runInviteCreate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML file with settings (environment variables win)")
	inviteCreateCmd.Flags().IntVarP(&inviteCount, "count", "n", 1, "Number of invites to create")

	inviteCmd.AddCommand(inviteCreateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(inviteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
