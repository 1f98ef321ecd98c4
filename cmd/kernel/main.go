/*
main.go - Transition kernel inspector

PURPOSE:
  Prints the exact transition distribution for one (state, action) next to
  sampled frequencies, so the sampler can be checked against the enumerator
  without running the server.

COMMAND-LINE FLAGS:
  -config     JSON environment definition (default: built-in food truck)
  -day        Day name (default: Mon)
  -inventory  Starting inventory (default: 0)
  -action     Order quantity (default: 200)
  -samples    Number of sampled steps, 0 to skip sampling (default: 100000)
  -seed       Sampler seed (default: 1)
  -chart      Write an HTML bar chart to this path
  -no-color   Disable ANSI colors

EXAMPLES:
  ./kernel -day=Tue -inventory=100 -action=300
  ./kernel -config=volatile.json -chart=kernel.html

EXIT CODES:
  0  success
  1  invalid input or I/O failure
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/warp/foodtruck-engine/factory"
	"github.com/warp/foodtruck-engine/foodtruck"
	"github.com/warp/foodtruck-engine/generic"
	"github.com/warp/foodtruck-engine/report"
)

func main() {
	configPath := flag.String("config", "", "JSON environment definition")
	day := flag.String("day", "Mon", "day name")
	inventory := flag.Int("inventory", 0, "starting inventory")
	action := flag.Int("action", 200, "order quantity")
	samples := flag.Int("samples", 100000, "sampled steps (0 skips sampling)")
	seed := flag.Uint64("seed", 1, "sampler seed")
	chartPath := flag.String("chart", "", "write an HTML chart to this path")
	noColor := flag.Bool("no-color", false, "disable colors")
	flag.Parse()

	log.SetFlags(0)

	env, err := loadEnvironment(*configPath)
	if err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	d, err := env.ParseDay(*day)
	if err != nil {
		log.Fatalf("Invalid day: %v", err)
	}
	state := foodtruck.State{Day: d, Inventory: foodtruck.Units(*inventory)}
	a := foodtruck.Action(*action)

	title := fmt.Sprintf("%s, order %d", env.StateKey(state), a)
	var table report.Table
	var rep foodtruck.ConsistencyReport
	if *samples > 0 {
		rep, err = env.CheckConsistency(state, a, *samples, generic.NewSampler(*seed))
		if err != nil {
			log.Fatalf("Consistency check failed: %v", err)
		}
		table = report.FromKernel(title, rep.Kernel, rep.Tally, env.StateKey)
	} else {
		k, err := env.EnumerateTransitions(state, a)
		if err != nil {
			log.Fatalf("Cannot enumerate transitions: %v", err)
		}
		table = report.FromKernel(title, k, nil, env.StateKey)
		rep.ExpectedReward = k.ExpectedReward()
	}
	table.Sort()
	table.Colors = !*noColor

	if err := table.Render(os.Stdout); err != nil {
		log.Fatalf("Failed to render table: %v", err)
	}
	fmt.Printf("expected reward %.4f\n", rep.ExpectedReward)
	if *samples > 0 {
		fmt.Printf("sampled mean    %.4f over %d steps\n", rep.MeanReward, rep.Samples)
		fmt.Printf("max |p - freq|  %.4f\n", rep.MaxDeviation)
	}

	if *chartPath != "" {
		f, err := os.Create(*chartPath)
		if err != nil {
			log.Fatalf("Failed to create chart: %v", err)
		}
		defer f.Close()
		if err := report.Chart(f, table); err != nil {
			log.Fatalf("Failed to render chart: %v", err)
		}
		fmt.Printf("chart written to %s\n", *chartPath)
	}
}

func loadEnvironment(path string) (*foodtruck.Environment, error) {
	if path == "" {
		return foodtruck.Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	_, env, err := factory.NewEnvironmentFactory().ParseEnvironment(string(b))
	return env, err
}
