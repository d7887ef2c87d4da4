package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/san-kum/modrob/internal/experiment"
	"github.com/san-kum/modrob/internal/optim"
	"github.com/spf13/cobra"
)

func tuneCommand() *cobra.Command {
	var (
		kps, kis, kds []float64
		metric        string
		workers       int
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search controller gains on the configured run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := simConfig(cmd)
			if err != nil {
				return err
			}
			g := optim.NewGridSearch(kps, kis, kds, metric)
			g.Workers = workers

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			logger.Infow("tuning gains", "candidates", len(kps)*len(kis)*len(kds), "metric", metric)
			best, all, err := g.Search(ctx, optim.Builder(cfg, experiment.NewRegistry()))
			if len(all) > 0 {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "KP\tKI\tKD\t%s\n", metric)
				for _, c := range all {
					score := fmt.Sprintf("%.6g", c.Score)
					if math.IsInf(c.Score, 1) {
						score = "diverged"
					}
					fmt.Fprintf(w, "%g\t%g\t%g\t%s\n", c.Gains.Kp, c.Gains.Ki, c.Gains.Kd, score)
				}
				if werr := w.Flush(); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
			fmt.Printf("\nbest: kp=%g ki=%g kd=%g (%s %.6g)\n", best.Gains.Kp, best.Gains.Ki, best.Gains.Kd, metric, best.Score)
			return nil
		},
	}
	addSimFlags(cmd)
	cmd.Flags().Float64SliceVar(&kps, "kp", []float64{5, 10, 20, 40}, "proportional gains to try")
	cmd.Flags().Float64SliceVar(&kis, "ki", []float64{0, 10}, "integral gains to try")
	cmd.Flags().Float64SliceVar(&kds, "kd", []float64{5, 10, 20}, "derivative gains to try")
	cmd.Flags().StringVar(&metric, "metric", "tracking_error", "metric to minimize")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")
	return cmd
}
