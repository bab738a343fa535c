package main

import (
	"fmt"
	"os"

	"github.com/jdmarquezdev/tribitr-web/pkg/imagefields"
	"github.com/jdmarquezdev/tribitr-web/pkg/merge"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

func main() {
	log := logger.New()

	var opts struct {
		Output   string `short:"o" long:"output" description:"A path to write the merged snapshot to instead of stdout"`
		Sanitize bool   `short:"s" long:"sanitize" description:"Run the server's image field sanitization on the result"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 2 {
		fmt.Println("go run ./cmd/scripts/debug/merge-snapshots <path/to/local.json> <path/to/remote.json>")
		os.Exit(1)
	}

	local, err := readSnapshot(args[0])
	if err != nil {
		log.Err(err).Fatal("local snapshot error")
	}
	remote, err := readSnapshot(args[1])
	if err != nil {
		log.Err(err).Fatal("remote snapshot error")
	}

	merged := merge.Snapshots(local, remote)
	if opts.Sanitize {
		report := imagefields.Sanitize(merged)
		log.Info("sanitized", logger.Data{"cleared": report.Cleared, "backfilled": report.Backfilled})
	}

	log.Info("merged", logger.Data{
		"local_items":     len(local.Items),
		"remote_items":    len(remote.Items),
		"merged_items":    len(merged.Items),
		"equal_to_remote": merge.Equal(merged, remote),
		"revision":        merged.Revision,
	})

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		log.Err(err).Fatal("encode error")
	}
	data = append(data, '\n')

	if opts.Output == "" {
		_, err = os.Stdout.Write(data)
	} else {
		err = os.WriteFile(opts.Output, data, 0600)
	}
	if err != nil {
		log.Err(err).Fatal("write error")
	}
}

func readSnapshot(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	snap, err := models.DecodeSnapshot(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	snap.Normalize()
	return snap, nil
}
