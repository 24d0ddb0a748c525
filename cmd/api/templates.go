package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"remitapi/internal/template"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage payer templates",
	}
	cmd.AddCommand(templatesImportCmd())
	return cmd
}

func templatesImportCmd() *cobra.Command {
	var orgID, payerName, createdBy string

	cmd := &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Register a payer template from a YAML seed",
		Long: `Register a payer template from a YAML seed.

The payer is resolved (or created) in the organization by exact name. The
--payer flag overrides the seed's payer field. Documents of that payer
waiting in need_template are queued for processing again.

Examples:
  remitapi templates import --org-id acme seeds/acme-health.yaml
  remitapi templates import --org-id acme --payer "Acme Health" eob.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return errors.New("--org-id is required")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open seed: %w", err)
			}
			defer f.Close()

			seed, err := template.LoadSeed(f)
			if err != nil {
				return err
			}
			if payerName == "" {
				payerName = seed.Payer
			}
			if payerName == "" {
				return errors.New("payer name missing: set --payer or the seed's payer field")
			}

			ctx := cmd.Context()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.resolver.Resolve(ctx, orgID, payerName)
			if err != nil {
				return fmt.Errorf("resolve payer: %w", err)
			}
			t, v, err := a.registrar.Register(ctx, template.RegisterInput{
				PayerID:   p.ID,
				Name:      seed.Name,
				Schema:    seed.Schema(),
				CreatedBy: createdBy,
			})
			if err != nil {
				return err
			}

			a.logger.Info("template imported",
				zap.String("event", "template.imported"),
				zap.String("payer_id", p.ID),
				zap.String("template_id", t.ID),
				zap.Int("version", v.VersionNumber),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "template %s (%s) version %d for payer %s\n",
				t.Name, t.ID, v.VersionNumber, p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org-id", "", "organization the payer belongs to")
	cmd.Flags().StringVar(&payerName, "payer", "", "payer name (defaults to the seed's payer)")
	cmd.Flags().StringVar(&createdBy, "created-by", "cli", "actor recorded on the template")
	return cmd
}
