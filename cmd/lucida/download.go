package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lucidaflow/internal/downloader"
	"lucidaflow/pkg/lucida"
	"lucidaflow/pkg/ui"
)

var (
	downloadOutput  string
	downloadNotify  bool
	downloadWorkers int
)

var downloadCmd = &cobra.Command{
	Use:   "download <track-url> [track-url...]",
	Short: "Download a track",
	Long: `Download a track through lucida.to.

Without --output the file is saved in the download directory under the name
the server suggests, or the last segment of the track URL. An interrupted
download (Ctrl+C) leaves no partial file behind.

Several URLs are downloaded into the download directory by --workers workers
that share one rate limiter.`,
	Example: `  lucida download https://tidal.com/browse/track/12345
  lucida download https://tidal.com/browse/track/12345 -o ./music/song.flac
  lucida download URL1 URL2 URL3 --workers 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			if downloadOutput != "" {
				return fmt.Errorf("--output can only be used with a single track")
			}
			return downloadBatch(cmd, args)
		}

		trackURL := args[0]
		p := current.printer

		info, err := current.newClient().TrackInfo(cmd.Context(), trackURL)
		if err != nil {
			return err
		}
		p.TrackInfo(info)

		display := ui.NewProgressDisplay(p, displayName(info))
		client := current.newClient(lucida.WithProgress(display.Update))

		result, err := client.Download(cmd.Context(), trackURL, downloadOutput)
		if err != nil {
			display.Fail(err)
			notify(cmd, false, err.Error())
			return err
		}

		display.Complete(result.Filepath, result.Size)
		p.Info("Size", fmt.Sprintf("%d bytes (%.2f MB)", result.Size, result.SizeMB()))
		notify(cmd, true, filepath.Base(result.Filepath))
		return nil
	},
}

func downloadBatch(cmd *cobra.Command, trackURLs []string) error {
	p := current.printer
	p.Info("Downloading", fmt.Sprintf("%d tracks with %d workers", len(trackURLs), downloadWorkers))

	results := downloader.Run(cmd.Context(), current.newClient(), trackURLs, downloadWorkers, current.log)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			p.Error(r.Job.TrackURL, r.Err)
			continue
		}
		p.Success(fmt.Sprintf("%s → %s (%s)", r.Job.TrackURL, r.Download.Filepath, ui.FormatBytes(r.Download.Size)))
	}

	summary := fmt.Sprintf("%d of %d tracks downloaded", len(results)-failed, len(results))
	notify(cmd, failed == 0, summary)
	if failed > 0 {
		return fmt.Errorf("%s", summary)
	}
	p.Highlight(summary)
	return nil
}

func displayName(info *lucida.TrackInfo) string {
	if info.Name != nil {
		return *info.Name
	}
	return info.URL
}

func notify(cmd *cobra.Command, ok bool, message string) {
	if !downloadNotify {
		return
	}
	n := ui.NewNotifier(ui.NewPrinter(cmd.ErrOrStderr()))
	n.SetLogger(current.log)
	if ok {
		n.Success(cmd.Context(), "Download complete", message)
		return
	}
	n.Error(cmd.Context(), "Download failed", message)
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadNotify, "notify", false, "send a desktop notification when done")
	downloadCmd.Flags().IntVarP(&downloadWorkers, "workers", "j", 2, "concurrent downloads when several URLs are given")
}
