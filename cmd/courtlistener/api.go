package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var (
		all   bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list <endpoint> [key=value...]",
		Short: "List records of an endpoint",
		Long: "List records of an endpoint. Filters are key=value pairs; use __ for lookups " +
			"and related fields, e.g. date_filed__gte=2020-01-01 court__id=scotus.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Resource(args[0])
			if err != nil {
				return err
			}
			filters, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			it, err := res.List(filters)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			records := []map[string]any{}
			if !all {
				page, err := it.Results(ctx)
				if err != nil {
					return err
				}
				records = append(records, page...)
			} else {
				for record, err := range it.All(ctx) {
					if err != nil {
						return err
					}
					records = append(records, record)
					if limit > 0 && len(records) >= limit {
						break
					}
				}
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			return write(cmd.OutOrStdout(), a.output, records)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "follow next links through every page")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records to print (0 = no limit)")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <endpoint> <id>",
		Short: "Get one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Resource(args[0])
			if err != nil {
				return err
			}
			record, err := res.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), a.output, record)
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count <endpoint> [key=value...]",
		Short: "Count the records matching the filters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Resource(args[0])
			if err != nil {
				return err
			}
			filters, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			it, err := res.List(filters)
			if err != nil {
				return err
			}
			n, err := it.Count(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <endpoint>",
		Short: "Print the filter schema of an endpoint as JSON Schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			e, err := reg.Endpoint(args[0])
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), a.output, e.JSONSchema())
		},
	}
}
