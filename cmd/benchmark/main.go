package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ripplegraph/ripple"
	"github.com/urfave/cli/v3"
)

const (
	widthsKey  = "widths"
	heightsKey = "heights"
	itersKey   = "iters"
	profileKey = "profile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure ripple propagation latency over w*h graphs",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:  widthsKey,
				Usage: "Parallel computed chains per source",
				Value: []int64{1, 10, 100, 1000},
			},
			&cli.IntSliceFlag{
				Name:  heightsKey,
				Usage: "Computed chain depths",
				Value: []int64{1, 10, 100, 1000},
			},
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "Writes per configuration",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this path",
				Value: "",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("can't create profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("can't start profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	ww := cmd.IntSlice(widthsKey)
	hh := cmd.IntSlice(heightsKey)
	iters := int(cmd.Int(itersKey))

	tbl := table.NewWriter()
	tbl.SetTitle("Ripple Signals")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w64 := range ww {
		for _, h64 := range hh {
			w, h := int(w64), int(h64)
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := ripple.CreateReactiveSystem(func(from ripple.SignalAware, err error) {
				log.Panic(err)
			})
			src := ripple.Signal(rs, 1)
			for i := 0; i < w; i++ {
				last := ripple.Computed(rs, func(oldValue int) int {
					return src.Value() + 1
				})
				for j := 1; j < h; j++ {
					prev := last
					last = ripple.Computed(rs, func(oldValue int) int {
						return prev.Value() + 1
					})
				}

				if _, err := ripple.Effect(rs, func() error {
					last.Value()
					return nil
				}); err != nil {
					return err
				}
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.SetValue(src.Peek() + 1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return nil
}
