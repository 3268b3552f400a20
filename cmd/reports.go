package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ypb/phonebook/internal/reports"
	"github.com/ypb/phonebook/internal/storage"
)

var (
	uploadDuplicates bool
	uploadPhones     bool
)

// publish uploads data when --upload was given and prints it otherwise.
func publish(ctx context.Context, out io.Writer, upload bool, name, contentType string, data []byte) error {
	if !upload {
		_, err := out.Write(data)
		return err
	}
	if cfg.MinIO.Endpoint == "" {
		return fmt.Errorf("--upload needs MINIO_ENDPOINT")
	}
	store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return err
	}
	key, link, err := reports.NewPublisher(store).Publish(ctx, name, contentType, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "uploaded %s\n%s\n", key, link)
	return nil
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List phone numbers that appear on more than one page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		snap, err := a.cache.Snapshot(ctx)
		if err != nil {
			return err
		}
		text := reports.DuplicatesText(snap.Duplicates())
		return publish(ctx, cmd.OutOrStdout(), uploadDuplicates, "phoneDuplicates.txt", "text/plain; charset=utf-8", []byte(text))
	},
}

var exportPhonesCmd = &cobra.Command{
	Use:   "export-phones",
	Short: "Export titles and phone numbers of all pages as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		snap, err := a.cache.Snapshot(ctx)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := reports.PhonesCSV(&buf, snap.Active()); err != nil {
			return err
		}
		return publish(ctx, cmd.OutOrStdout(), uploadPhones, "phones.csv", "text/csv; charset=utf-8", buf.Bytes())
	},
}

func init() {
	duplicatesCmd.Flags().BoolVar(&uploadDuplicates, "upload", false, "upload the report to object storage and print a download link")
	exportPhonesCmd.Flags().BoolVar(&uploadPhones, "upload", false, "upload the CSV to object storage and print a download link")
}
