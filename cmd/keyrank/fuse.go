package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"keyrank/internal/domain"
	"keyrank/internal/fusion"
)

func runFuse(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("keyrank fuse", flag.ContinueOnError)
	method := fs.String("method", "rrf", "Fusion method: rrf, weighted or hybrid")
	k := fs.Int("k", fusion.DefaultK, "Rank constant")
	lambda := fs.Float64("lambda", fusion.DefaultLambda, "Score weight for hybrid fusion, in [0,1]")
	asJSON := fs.Bool("json", false, "Print the fused ranking as JSON")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: keyrank fuse [flags] list1.json list2.json ...")
		fmt.Fprintln(fs.Output(), `Each file holds a JSON array of {"id": ..., "score": ...}, best first.`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no ranked lists given")
	}

	m, err := fusion.Parse(*method)
	if err != nil {
		return err
	}
	fuser, err := fusion.New(fusion.Config{Method: m, K: *k, Lambda: *lambda})
	if err != nil {
		return err
	}

	lists := make([][]domain.Ranked, 0, fs.NArg())
	for _, path := range fs.Args() {
		list, err := readRankedList(path)
		if err != nil {
			return err
		}
		lists = append(lists, list)
	}

	fused := fuser.Fuse(lists...)
	if *asJSON {
		return writeJSON(stdout, fused)
	}
	printFused(stdout, fused)
	return nil
}

func readRankedList(path string) ([]domain.Ranked, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []domain.Ranked
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}
