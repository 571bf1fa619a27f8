package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photobooth/internal/config"
	"github.com/kozaktomas/photobooth/internal/fingerprint"
	"github.com/kozaktomas/photobooth/internal/loader"
)

var compareCmd = &cobra.Command{
	Use:   "compare <image> <image>",
	Short: "Compare two images by perceptual hash",
	Long: `Compute the perceptual hashes of two images and report whether the
booth would flag them as the same shot.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

type compareOutput struct {
	A         fingerprint.HashResult `json:"a"`
	B         fingerprint.HashResult `json:"b"`
	PHashDist int                    `json:"phash_distance"`
	DHashDist int                    `json:"dhash_distance"`
	Duplicate bool                   `json:"duplicate"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	dec := loader.New(cfg.Loader.Timeout, cfg.Loader.MaxBytes)
	ctx := context.Background()

	hashes := make([]fingerprint.HashResult, len(args))
	for i, arg := range args {
		bm, err := dec.Decode(ctx, sourceFromArg(arg))
		if err != nil {
			return err
		}
		hashes[i] = fingerprint.ComputeHashes(bm.Image)
	}

	result := compareOutput{
		A:         hashes[0],
		B:         hashes[1],
		PHashDist: fingerprint.HammingDistance(hashes[0].PHashBits, hashes[1].PHashBits),
		DHashDist: fingerprint.HammingDistance(hashes[0].DHashBits, hashes[1].DHashBits),
		Duplicate: fingerprint.Duplicate(hashes[0], hashes[1]),
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(result)
	}

	fmt.Printf("%s  phash %s  dhash %s\n", args[0], result.A.PHash, result.A.DHash)
	fmt.Printf("%s  phash %s  dhash %s\n", args[1], result.B.PHash, result.B.DHash)
	fmt.Printf("Distance: phash %d, dhash %d (duplicate threshold %d)\n",
		result.PHashDist, result.DHashDist, fingerprint.DuplicateThreshold)
	if result.Duplicate {
		fmt.Println("Same shot")
	} else {
		fmt.Println("Different shots")
	}
	return nil
}
