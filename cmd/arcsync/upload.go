package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openarchive/arcsync/internal/arcsdk"
	"github.com/openarchive/arcsync/internal/digest"
	"github.com/openarchive/arcsync/internal/metadata"
	"github.com/openarchive/arcsync/internal/upload"
	"github.com/openarchive/arcsync/internal/validate"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [PATH ...]",
	Short: "Upload dataset files to their archive collection",
	Long: `Upload walks the given paths (or the current dataset), compares each
file against the remote collection, and uploads what is new or changed.
All paths must belong to a single local dataset.`,
	Args: cobra.ArbitraryArgs,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().SortFlags = false
	uploadCmd.Flags().StringP("existing", "e", string(upload.PolicyRefresh),
		"What to do with assets that already exist remotely (error|skip|overwrite|refresh|force)")
	uploadCmd.Flags().String("validation", string(validate.ModeRequire),
		"How to handle pre-upload validation (require|ignore|skip)")
	uploadCmd.Flags().IntP("jobs", "j", upload.DefaultMaxInFlight, "Number of assets to process in parallel")
	uploadCmd.Flags().Int("jobs-per-asset", 4, "Parallelism within a single asset transfer")
	uploadCmd.Flags().Bool("sync", false, "Delete remote assets that do not exist locally")
	uploadCmd.Flags().Bool("update-metadata", false, "Push the local dataset metadata file to the collection")
	uploadCmd.Flags().Bool("debug", false, "Process assets serially and stop at the first error")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	policy, err := upload.ParsePolicy(mustString(cmd, "existing"))
	if err != nil {
		return err
	}
	mode, err := validate.ParseMode(mustString(cmd, "validation"))
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	client, err := arcsdk.New(cfg.ServerURL, cfg.APIToken)
	if err != nil {
		return err
	}
	defer client.Close()

	var cache *digest.Cache
	if cache, err = digest.NewCache(filepath.Join(cfg.CacheDir, "digests.db")); err != nil {
		slog.Warn("digest cache unavailable, hashing everything", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	resolver := func(ctx context.Context, identifier string) (upload.Collection, error) {
		return client.Collection(ctx, identifier)
	}
	engine := upload.NewEngine(
		resolver,
		digest.NewDigester(cache),
		&validate.BasicValidator{},
		&metadata.StatExtractor{},
	)

	reporter := upload.NewReporter(os.Stdout)
	opts := &upload.Options{
		Policy:                policy,
		Validation:            mode,
		UploadDatasetMetadata: mustBool(cmd, "update-metadata"),
		Jobs:                  mustInt(cmd, "jobs"),
		JobsPerAsset:          mustInt(cmd, "jobs-per-asset"),
		Serial:                mustBool(cmd, "debug"),
		DeleteSync:            mustBool(cmd, "sync"),
		Confirm:               confirmOnStdin,
		OnEvent:               reporter.Handle,
	}

	batch, err := engine.Sync(cmd.Context(), args, opts)
	if batch != nil {
		reporter.Summary(batch)
	}
	if err != nil {
		return err
	}
	if batch != nil && !batch.ValidateOK() {
		return errors.New("one or more assets failed validation")
	}
	return nil
}

// confirmOnStdin asks a y/N question on the terminal. Anything but an
// explicit yes declines.
func confirmOnStdin(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func mustInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}
