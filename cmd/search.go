package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	searchIndustries   []string
	searchRevenueMin   int
	searchRevenueMax   int
	searchHeadcountMin int
	searchHeadcountMax int
	searchICPFile      string
	searchWeightsFile  string
	searchXLSXPath     string
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search and rank companies matching an ICP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		icp, err := searchICP()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		svc, err := initDiscovery(st, searchWeightsFile)
		if err != nil {
			return err
		}

		resp, err := svc.Search(ctx, icp)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		if len(resp.Companies) == 0 {
			fmt.Fprintln(os.Stderr, "No companies found.")
			return nil
		}

		formatSearchResults(os.Stdout, resp)

		if searchXLSXPath != "" {
			if err := exportXLSX(searchXLSXPath, resp.Companies); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported %d companies to %s\n", len(resp.Companies), searchXLSXPath)
		}

		return nil
	},
}

// searchICP builds the ICP from --icp or the individual flags.
func searchICP() (model.ICP, error) {
	if searchICPFile != "" {
		data, err := os.ReadFile(searchICPFile)
		if err != nil {
			return model.ICP{}, eris.Wrap(err, "read ICP file")
		}
		var icp model.ICP
		if err := json.Unmarshal(data, &icp); err != nil {
			return model.ICP{}, eris.Wrap(err, "parse ICP file")
		}
		return icp, nil
	}

	if len(searchIndustries) == 0 {
		return model.ICP{}, eris.New("at least one --industries value (or --icp) is required")
	}

	return model.ICP{
		Industries:   searchIndustries,
		RevenueMin:   searchRevenueMin,
		RevenueMax:   searchRevenueMax,
		HeadcountMin: searchHeadcountMin,
		HeadcountMax: searchHeadcountMax,
	}, nil
}

func formatSearchResults(w io.Writer, resp *model.SearchResponse) {
	fmt.Fprintf(w, "Found %d companies (%dms), showing top %d:\n\n",
		resp.TotalFound, resp.SearchTimeMS, len(resp.Companies))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tNAME\tDOMAIN\tHEADCOUNT\tREVENUE\tINDUSTRIES")
	for i, c := range resp.Companies {
		fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			c.Score,
			c.Name,
			c.Domain,
			formatCount(c.Headcount),
			formatUSD(c.Revenue),
			strings.Join(c.Industries, ", "),
		)
	}
	tw.Flush() //nolint:errcheck
}

func formatCount(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func formatUSD(n int) string {
	switch {
	case n <= 0:
		return "-"
	case n >= 1_000_000:
		return fmt.Sprintf("$%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("$%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("$%d", n)
	}
}

func exportXLSX(path string, companies []model.CompanyRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Companies")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Rank", "Score", "Name", "Domain", "Headcount", "Revenue (USD)", "Headquarters", "Founded", "Industries"} {
		header.AddCell().SetString(h)
	}

	for i, c := range companies {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetFloatWithFormat(c.Score, "0.000")
		row.AddCell().SetString(c.Name)
		row.AddCell().SetString(c.Domain)
		row.AddCell().SetInt(c.Headcount)
		row.AddCell().SetInt(c.Revenue)
		row.AddCell().SetString(c.Headquarters)
		row.AddCell().SetString(c.FoundedYear)
		row.AddCell().SetString(strings.Join(c.Industries, ", "))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save")
	}
	return nil
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchIndustries, "industries", nil, "target industries (repeatable)")
	searchCmd.Flags().IntVar(&searchRevenueMin, "revenue-min", 0, "minimum revenue in USD")
	searchCmd.Flags().IntVar(&searchRevenueMax, "revenue-max", 0, "maximum revenue in USD")
	searchCmd.Flags().IntVar(&searchHeadcountMin, "headcount-min", 0, "minimum headcount")
	searchCmd.Flags().IntVar(&searchHeadcountMax, "headcount-max", 0, "maximum headcount")
	searchCmd.Flags().StringVar(&searchICPFile, "icp", "", "path to an ICP JSON file (overrides the criteria flags)")
	searchCmd.Flags().StringVar(&searchWeightsFile, "weights", "", "path to a scoring weights YAML file")
	searchCmd.Flags().StringVar(&searchXLSXPath, "xlsx", "", "export results to an XLSX file")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the raw JSON response")
	rootCmd.AddCommand(searchCmd)
}
