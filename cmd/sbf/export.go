package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/pglira/cloudcompare-sbf-io/internal/asc"
)

func (a *app) exportASCCmd() *cli.Command {
	return &cli.Command{
		Name:      "export-asc",
		Usage:     "Convert a file to CloudCompare ASCII (.asc)",
		ArgsUsage: "<file.sbf>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "path of the .asc file",
				Required: true,
			},
			&cli.BoolFlag{Name: "world", Usage: "write coordinates with the global shift applied"},
			&cli.IntFlag{Name: "precision", Usage: "decimals per value (default from config)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := inputArg(cmd)
			if err != nil {
				return err
			}
			res, err := a.codec.Read(path)
			if err != nil {
				return err
			}

			opts := asc.Options{
				ApplyShift: cmd.Bool("world"),
				Precision:  a.cfg.GetASCPrecision(),
			}
			if cmd.IsSet("precision") {
				opts.Precision = cmd.Int("precision")
			}

			out := cmd.String("output")
			if err := asc.ExportFile(a.fs, out, res.Cloud(), fieldNames(res), res.GlobalShift(), opts); err != nil {
				return fmt.Errorf("export %s: %w", path, err)
			}
			return nil
		},
	}
}
