package main

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/courtlistener/catalog"
)

func newEndpointsCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List the known endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				c, err := a.client()
				if err != nil {
					return err
				}
				defer c.Close()
				root, err := c.Endpoints(cmd.Context())
				if err != nil {
					return err
				}
				return write(cmd.OutOrStdout(), a.output, root)
			}

			reg, err := a.registry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPATH\tNAME")
			for _, e := range reg.Endpoints() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Path, e.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list the live API root instead of the catalog")
	cmd.AddCommand(newEndpointsSearchCmd(a))
	return cmd
}

func newEndpointsSearchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <text...>",
		Short: "Find endpoints by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			idx := catalog.New(catalog.Config{})
			defer idx.Close()

			hits, err := idx.Search(strings.Join(args, " "), limit, catalog.Docs(reg))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSCORE\tDESCRIPTION")
			for _, h := range hits {
				fmt.Fprintf(tw, "%s\t%.3f\t%s\n", h.ID, h.Score, firstLine(h.Description))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of endpoints")
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the endpoint catalog",
	}

	var out string
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the endpoint catalog from live OPTIONS introspection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			reg, err := c.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			ids := reg.IDs()
			a.log.Info().Int("endpoints", len(ids)).Bool("search", slices.Contains(ids, "search")).Msg("catalog refreshed")

			if out == "" || out == "-" {
				return reg.Write(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := reg.Write(f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	refresh.Flags().StringVar(&out, "out", "", "write the catalog to this file instead of stdout")
	cmd.AddCommand(refresh)
	return cmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
