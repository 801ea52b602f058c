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
	"github.com/ripplefn/ripple"
	"github.com/urfave/cli/v3"
)

const (
	iterationsKey = "iters"
	cpuProfileKey = "cpuprofile"
)

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100, 1_000}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure ripple propagation latency over computed grids",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Writes timed per grid",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if profilePath := cmd.String(cpuProfileKey); profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(iterationsKey))

	log.Print("warming up")
	benchmarkGrid([]int{10}, []int{10}, iters, false)

	benchmarkGrid(ww, hh, iters, true)
	return nil
}

func benchmarkGrid(ww, hh []int, iters int, shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Ripple Signals")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := ripple.NewReactiveSystem()
			src := ripple.Signal(rs, 1)
			for i := 0; i < w; i++ {
				last := src.Value
				for j := 0; j < h; j++ {
					prev := last
					last = ripple.Computed(rs, func(oldValue int) int {
						return prev() + 1
					}).Value
				}

				ripple.Effect(rs, func(prev int) int {
					return last()
				})
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

	if shouldRender {
		tbl.Render()
	}
}
