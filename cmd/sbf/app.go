package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/urfave/cli/v3"

	"github.com/pglira/cloudcompare-sbf-io/internal/config"
	"github.com/pglira/cloudcompare-sbf-io/internal/fsutil"
	"github.com/pglira/cloudcompare-sbf-io/internal/monitoring"
	"github.com/pglira/cloudcompare-sbf-io/internal/sbf"
	"github.com/pglira/cloudcompare-sbf-io/internal/version"
)

// errVerifyFailed marks a verify run that found warnings or unreadable
// files. main exits with status 2 for it.
var errVerifyFailed = errors.New("verification failed")

// app carries the state shared by all subcommands. It is filled in by
// before once the global flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	fs    fsutil.FileSystem // nil means the OS filesystem chosen by config
	cfg   *config.Config
	codec *sbf.Codec
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "sbf",
		Usage:     "Inspect, verify and convert CloudCompare SBF point clouds",
		Version:   version.String(),
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a .json or .yaml settings file",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "suppress diagnostic logging",
			},
			&cli.BoolFlag{
				Name:  "strict-magic",
				Usage: "treat a wrong payload magic as an error",
			},
		},
		Before: a.before,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			a.infoCmd(),
			a.verifyCmd(),
			a.generateCmd(),
			a.exportASCCmd(),
			a.previewCmd(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		src := a.fs
		if src == nil {
			src = fsutil.OSFileSystem{}
		}
		loaded, err := config.LoadFS(src, path)
		if err != nil {
			return ctx, err
		}
		cfg = loaded
	}
	a.cfg = cfg

	if cmd.Bool("quiet") || cfg.GetQuiet() {
		monitoring.SetLogger(nil)
	} else {
		monitoring.SetLogger(log.New(a.stderr, "", log.LstdFlags).Printf)
	}

	if a.fs == nil {
		a.fs = fsutil.OSFileSystem{Direct: !cfg.GetAtomicWrites()}
	}
	a.codec = &sbf.Codec{
		FS:          a.fs,
		StrictMagic: cfg.GetStrictMagic() || cmd.Bool("strict-magic"),
	}
	return ctx, nil
}

// inputArg returns the single positional argument of cmd.
func inputArg(cmd *cli.Command) (string, error) {
	if cmd.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one <file.sbf> argument, got %d", cmd.Name, cmd.NArg())
	}
	return cmd.Args().First(), nil
}

// fieldNames returns the header's scalar field names when they match the
// payload, and generated SF<n> names otherwise.
func fieldNames(res *sbf.Result) []string {
	names := res.ScalarFieldNames()
	sf := res.Cloud().ScalarFieldCount()
	if len(names) == sf {
		return names
	}
	out := make([]string, sf)
	for i := range out {
		if i < len(names) && names[i] != "" {
			out[i] = names[i]
		} else {
			out[i] = fmt.Sprintf("SF%d", i+1)
		}
	}
	return out
}
