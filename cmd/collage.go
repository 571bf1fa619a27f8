package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/codec"
	"github.com/kozaktomas/photobooth/internal/collage"
	"github.com/kozaktomas/photobooth/internal/config"
	"github.com/kozaktomas/photobooth/internal/export"
	"github.com/kozaktomas/photobooth/internal/filter"
	"github.com/kozaktomas/photobooth/internal/loader"
	"github.com/kozaktomas/photobooth/internal/logger"
)

var collageCmd = &cobra.Command{
	Use:   "collage <image>...",
	Short: "Compose images into a collage",
	Long: `Compose local files or http(s) URLs into a polaroid-style collage.

Images fill the layout cells in row-major order; images beyond the layout's
capacity are ignored.`,
	Example: `  photobooth collage --layout 2x2 a.jpg b.jpg c.jpg d.jpg
  photobooth collage --layout 4x2 --filter vintage --format jpeg --out strip.jpg *.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCollage,
}

func init() {
	rootCmd.AddCommand(collageCmd)

	collageCmd.Flags().String("layout", "", "Layout id (default: first layout in the catalog)")
	collageCmd.Flags().String("format", "", "Output format: png, jpeg, webp (default $COLLAGE_FORMAT or png)")
	collageCmd.Flags().Int("quality", 0, "Encoder quality for lossy formats (default $COLLAGE_QUALITY or 95)")
	collageCmd.Flags().String("filter", "", "Filter preset applied to every image before composing")
	collageCmd.Flags().StringP("out", "o", "", "Output file (default: collage-<layout>-<timestamp>.<ext>)")
	collageCmd.Flags().Bool("json", false, "Output result as JSON")
}

// sourceFromArg maps a command line argument to a loader source.
func sourceFromArg(arg string) loader.Source {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "data:") {
		return loader.FromURL(arg)
	}
	return loader.FromPath(arg)
}

// progressDecoder advances a progress bar after every decoded image and
// optionally applies a filter preset to it.
type progressDecoder struct {
	inner  collage.Decoder
	bar    *progressbar.ProgressBar
	adjust *filter.Adjustments
}

func (d *progressDecoder) Decode(ctx context.Context, src loader.Source) (*loader.Bitmap, error) {
	bm, err := d.inner.Decode(ctx, src)
	if d.bar != nil {
		_ = d.bar.Add(1)
	}
	if err != nil || d.adjust == nil {
		return bm, err
	}

	img, err := filter.Apply(bm.Image, *d.adjust)
	if err != nil {
		return nil, err
	}
	return &loader.Bitmap{Image: img, Width: bm.Width, Height: bm.Height, Format: bm.Format}, nil
}

type collageOutput struct {
	Path        string   `json:"path"`
	Layout      string   `json:"layout"`
	Format      string   `json:"format"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Bytes       int      `json:"bytes"`
	Photos      []string `json:"photos"`
	Ignored     int      `json:"ignored"`
	Fingerprint string   `json:"fingerprint"`
}

func runCollage(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	jsonOutput := mustGetBool(cmd, "json")

	layout := catalog.DefaultLayout()
	if id := mustGetString(cmd, "layout"); id != "" {
		l, ok := catalog.LayoutByID(id)
		if !ok {
			return fmt.Errorf("unknown layout %q (see 'photobooth layouts')", id)
		}
		layout = l
	}

	formatName := cfg.Collage.Format
	if f := mustGetString(cmd, "format"); f != "" {
		formatName = f
	}
	format, err := codec.ParseFormat(formatName)
	if err != nil {
		return err
	}
	quality := cfg.Collage.Quality
	if q := mustGetInt(cmd, "quality"); q > 0 {
		quality = min(q, 100)
	}

	dec := &progressDecoder{inner: loader.New(cfg.Loader.Timeout, cfg.Loader.MaxBytes)}
	if preset := mustGetString(cmd, "filter"); preset != "" {
		adj := filter.Default()
		adj.Effect = preset
		if err := adj.Validate(); err != nil {
			return err
		}
		dec.adjust = &adj
	}

	inputs := make([]collage.Input, len(args))
	for i, arg := range args {
		inputs[i] = collage.Input{ID: arg, Source: sourceFromArg(arg)}
	}
	used := min(len(inputs), layout.Cells())

	if !jsonOutput {
		dec.bar = progressbar.NewOptions(used,
			progressbar.OptionSetDescription("Decoding images"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal...")
		cancel()
	}()

	compositor := collage.NewCompositor(dec,
		collage.WithEncoding(format, quality),
		collage.WithLogger(log.Named("collage")))

	res, err := compositor.Compose(ctx, inputs, layout)
	if dec.bar != nil {
		_ = dec.bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("composing collage: %w", err)
	}

	out := mustGetString(cmd, "out")
	if out == "" {
		out = export.DownloadFilename(layout.ID, format, time.Now())
	}
	if err := os.WriteFile(out, res.Encoded, 0o644); err != nil {
		return fmt.Errorf("writing collage: %w", err)
	}

	b := res.Image.Bounds()
	result := collageOutput{
		Path:        out,
		Layout:      res.LayoutID,
		Format:      string(res.Format),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Bytes:       len(res.Encoded),
		Photos:      res.PhotoIDs,
		Ignored:     len(inputs) - used,
		Fingerprint: res.Fingerprint,
	}
	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Printf("Wrote %s (%dx%d %s, %d bytes)\n", result.Path, result.Width, result.Height, result.Format, result.Bytes)
	if result.Ignored > 0 {
		fmt.Printf("Ignored %d image(s) beyond the %s layout's %d cells\n", result.Ignored, layout.ID, layout.Cells())
	}
	return nil
}
