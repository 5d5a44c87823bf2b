package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "List the keys and certificates of the token",
	Long: `List the keys and certificates available to the API token.

The ids can be used with sign --key-id and --certificate-id.`,
	RunE: runProfile,
}

var profileJSON bool

func init() {
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "Output as JSON")
}

func runProfile(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	profile, err := a.client.GetProfile(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get token profile: %w", err)
	}

	out := cmd.OutOrStdout()
	if profileJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEYS")
	fmt.Fprintln(w, "ID\tNAME\tALGORITHM\tSTATUS")
	for _, k := range profile.Keys {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k.ID, k.Name, k.Algorithm, k.Status)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CERTIFICATES")
	fmt.Fprintln(w, "ID\tKEY ID\tNAME\tSTATUS")
	for _, c := range profile.Certificates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.KeyID, c.Name, c.Status)
	}
	return w.Flush()
}
