package commands

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List downloadable files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := appClient.ListFiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files available.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNAME\tSIZE\tDATE\tKEY")
			for _, it := range items {
				date := "-"
				if !it.ModifiedAt.IsZero() {
					date = it.ModifiedAt.Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.Type, it.Name, humanize.Bytes(uint64(it.Size)), date, it.ID)
			}
			return tw.Flush()
		},
	}
}

func downloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download KEY",
		Short: "Download a file from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			dest := output
			if dest == "" {
				dest = path.Base(key)
			}

			tmp := dest + ".part"
			f, err := os.Create(tmp)
			if err != nil {
				return fmt.Errorf("create %s: %w", tmp, err)
			}
			n, err := appClient.Download(cmd.Context(), key, f)
			closeErr := f.Close()
			if err != nil {
				os.Remove(tmp)
				return err
			}
			if closeErr != nil {
				os.Remove(tmp)
				return fmt.Errorf("close %s: %w", tmp, closeErr)
			}
			if err := os.Rename(tmp, dest); err != nil {
				return fmt.Errorf("rename %s: %w", tmp, err)
			}

			abs, _ := filepath.Abs(dest)
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s (%s) to %s\n", key, humanize.Bytes(uint64(n)), abs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default: the key's base name)")
	return cmd
}
