// Command rigcheck assembles rig prefabs and reports how well every weld's
// anchors line up, before and after a short simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/milk9111/flightrig/config"
	"github.com/milk9111/flightrig/ecs"
	"github.com/milk9111/flightrig/logging"
	"github.com/milk9111/flightrig/physics/rigid"
	"github.com/milk9111/flightrig/prefabs"
	"github.com/milk9111/flightrig/rig"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Tolerance is the largest anchor error accepted right after assembly.
const Tolerance = 1e-4

type jointReport struct {
	Name    string
	Kind    string
	Initial float64
	Final   float64
}

type report struct {
	File   string
	Rig    string
	Steps  int
	Joints []jointReport
}

func (r report) ok() bool {
	for _, j := range r.Joints {
		if j.Initial > Tolerance {
			return false
		}
	}
	return true
}

func (r report) write(out io.Writer) {
	fmt.Fprintf(out, "%s (%s), %d steps\n", r.File, r.Rig, r.Steps)
	for _, j := range r.Joints {
		status := "ok"
		if j.Initial > Tolerance {
			status = "FAIL"
		}
		fmt.Fprintf(out, "  %-20s %-9s initial %.2e  final %.2e  %s\n", j.Name, j.Kind, j.Initial, j.Final, status)
	}
}

// check assembles file on a fresh rigid engine and steps it.
func check(file string, steps int, workers int, log zerolog.Logger) (report, error) {
	spec, err := prefabs.LoadRigSpec(file)
	if err != nil {
		return report{}, err
	}

	opts := rigid.DefaultOptions()
	opts.Workers = workers
	w := ecs.NewWorld()
	pw := ecs.NewPhysicsWorld(rigid.New(opts), log)
	defer pw.Close()

	r, err := rig.NewBuilder(w, pw, log).Assemble(spec)
	if err != nil {
		return report{}, err
	}

	names := make([]string, 0, len(r.Welds))
	for name := range r.Welds {
		names = append(names, name)
	}
	sort.Strings(names)

	rep := report{File: file, Rig: spec.Name, Steps: steps}
	for _, name := range names {
		weld := r.Welds[name]
		dist, err := rig.AnchorError(pw, weld)
		if err != nil {
			return report{}, err
		}
		rep.Joints = append(rep.Joints, jointReport{Name: name, Kind: weld.Kind.String(), Initial: dist})
	}

	for range steps {
		if err := pw.Step(1.0 / 60); err != nil {
			return report{}, err
		}
	}
	for i, name := range names {
		dist, err := rig.AnchorError(pw, r.Welds[name])
		if err != nil {
			return report{}, err
		}
		rep.Joints[i].Final = dist
	}
	return rep, nil
}

// checkAll runs every file concurrently and returns reports in input order.
func checkAll(ctx context.Context, files []string, steps, workers int, log zerolog.Logger) ([]report, error) {
	reports := make([]report, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := check(file, steps, workers, log)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rigcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	steps := fs.Int("steps", 60, "steps to simulate after assembly")
	workers := fs.Int("workers", 2, "rigid engine workers")
	level := fs.String("log-level", "warn", "log level")
	all := fs.Bool("all", false, "check every rig prefab, embedded or on disk")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	files := fs.Args()
	if *all {
		files = prefabs.Rigs()
	}
	if len(files) == 0 {
		files = []string{"rig.yaml"}
	}

	log := logging.New(*level, stderr)
	reports, err := checkAll(context.Background(), files, *steps, *workers, log)
	if err != nil {
		log.Error().Err(err).Msg("rigcheck")
		return 1
	}

	code := 0
	for _, rep := range reports {
		rep.write(stdout)
		if !rep.ok() {
			code = 1
		}
	}
	return code
}

func main() {
	if err := config.Load("."); err == nil {
		prefabs.Dir = config.GetString(config.KeyPrefabsDir)
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
