package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/almhov/flowerhub/portal"
)

// profileCmd prints the owner's contact profile
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the asset owner's contact profile",
	RunE:  runProfile,
}

// agreementCmd prints the electricity agreement
var agreementCmd = &cobra.Command{
	Use:   "agreement",
	Short: "Show the electricity agreement state",
	RunE:  runAgreement,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(agreementCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	res, err := portalClient.FetchProfile(ctx, ownerID())
	if err != nil {
		return err
	}
	profile := res.Profile

	fmt.Printf("Profile #%d: %s %s\n", profile.ID, orDash(profile.FirstName), orDash(profile.LastName))
	fmt.Printf("  Email:   %s\n", orDash(profile.MainEmail))
	if profile.ContactEmail != nil && *profile.ContactEmail != "" {
		fmt.Printf("  Contact: %s\n", *profile.ContactEmail)
	}
	fmt.Printf("  Phone:   %s\n", orDash(profile.Phone))
	fmt.Printf("  Address: %s\n", formatAddress(profile.Address))
	fmt.Printf("  Account: %s\n", orDash(profile.AccountStatus))

	if profile.Installer.Name != nil {
		fmt.Printf("\nInstaller: %s\n", *profile.Installer.Name)
		fmt.Printf("  Address: %s\n", formatAddress(profile.Installer.Address))
	}

	return nil
}

func runAgreement(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := portalLogin(ctx); err != nil {
		return err
	}

	res, err := portalClient.FetchElectricityAgreement(ctx, ownerID())
	if err != nil {
		return err
	}
	agreement := res.Agreement

	printAgreementSide("Consumption", agreement.Consumption)
	printAgreementSide("Production", agreement.Production)

	return nil
}

func printAgreementSide(label string, state *portal.AgreementState) {
	fmt.Printf("%s site:\n", label)
	if state == nil {
		fmt.Println("  No agreement.")
		return
	}
	fmt.Printf("  State:      %s\n", orDash(state.StateCategory))
	if state.SiteID != nil {
		fmt.Printf("  Site id:    %d\n", *state.SiteID)
	}
	fmt.Printf("  Start date: %s\n", orDash(state.StartDate))
	if state.TerminationDate != nil && *state.TerminationDate != "" {
		fmt.Printf("  Terminates: %s\n", *state.TerminationDate)
	}
}

func formatAddress(addr portal.PostalAddress) string {
	street, postal, city := orDash(addr.Street), orDash(addr.PostalCode), orDash(addr.City)
	if street == "-" && postal == "-" && city == "-" {
		return "-"
	}
	return fmt.Sprintf("%s, %s %s", street, postal, city)
}
