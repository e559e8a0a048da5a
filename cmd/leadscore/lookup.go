package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/leadscore/internal/domain"
	"github.com/honeycarbs/leadscore/internal/domain/lead"
)

var (
	lookupCreateLead bool
	lookupOwner      string
	lookupUsage      bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <cvr-number>",
	Short: "Look up a company in the CVR registry",
	Long: `Fetch a company from the CVR registry and print it. With --create-lead a
lead is created from the record and scored.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupCreateLead, "create-lead", false, "Create a lead from the registry record")
	lookupCmd.Flags().StringVar(&lookupOwner, "owner", "", "Owner assigned to the created lead")
	lookupCmd.Flags().BoolVar(&lookupUsage, "usage", false, "Also print the CVR API usage for the configured key")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	company, err := a.res.LeadService.Lookup(ctx, args[0])
	if err != nil {
		return err
	}

	result := map[string]any{"company": company}
	if !isJSON() {
		printCompany(out, company)
	}

	if lookupCreateLead {
		created, err := a.res.LeadService.CreateFromRegistry(ctx, lead.CreateRequest{
			Identifier: company.RegistryID,
			Owner:      lookupOwner,
			Creator:    "leadscore-cli",
		})
		if err != nil {
			return fmt.Errorf("create lead: %w", err)
		}
		result["lead"] = created
		if !isJSON() {
			fmt.Fprintf(out, "\nCreated lead %s (score %d)\n", created.ID, created.Score)
		}
	}

	if lookupUsage {
		usage, err := a.res.CVRClient.Usage(ctx)
		if err != nil {
			a.logger.Warn("failed to fetch CVR API usage", "err", err)
		} else {
			result["usage"] = usage
			if !isJSON() {
				fmt.Fprintf(out, "\nAPI usage: %v\n", usage)
			}
		}
	}

	if isJSON() {
		return writeJSON(out, result)
	}
	return nil
}

func printCompany(w io.Writer, c domain.CompanyRecord) {
	fmt.Fprintf(w, "%s (CVR %s)\n", c.Name, c.RegistryID)
	rows := []struct{ label, value string }{
		{"Industry", c.IndustryText},
		{"Industry code", c.IndustryCode},
		{"Employees", fmt.Sprint(c.Employees)},
		{"Address", c.Address},
		{"City", strings.TrimSpace(c.PostalCode + " " + c.City)},
		{"Phone", c.Phone},
		{"Email", c.Email},
		{"Website", c.Website},
		{"Legal form", c.LegalForm},
		{"Established", c.EstablishedDate},
		{"Status", c.Status},
	}
	for _, r := range rows {
		if r.value == "" || r.value == "0" {
			continue
		}
		fmt.Fprintf(w, "  %-14s %s\n", r.label+":", r.value)
	}
}
