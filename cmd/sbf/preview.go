package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/pglira/cloudcompare-sbf-io/internal/preview"
)

func (a *app) previewCmd() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Render a top-down image of a file (format from the output extension)",
		ArgsUsage: "<file.sbf>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "image path (.png, .svg, .pdf, .jpg, .tiff, .eps)",
				Required: true,
			},
			&cli.FloatFlag{Name: "width", Usage: "image width in inches (default from config)"},
			&cli.FloatFlag{Name: "height", Usage: "image height in inches (default from config)"},
			&cli.FloatFlag{Name: "radius", Usage: "point radius in points (default from config)"},
			&cli.IntFlag{Name: "max-points", Usage: "thin larger clouds to about this many points", Value: preview.DefaultOptions().MaxPoints},
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

			opts := preview.Options{
				Title:       filepath.Base(path),
				WidthIn:     a.cfg.GetPreviewWidthIn(),
				HeightIn:    a.cfg.GetPreviewHeightIn(),
				PointRadius: a.cfg.GetPreviewPointRadius(),
				MaxPoints:   cmd.Int("max-points"),
			}
			if cmd.IsSet("width") {
				opts.WidthIn = cmd.Float("width")
			}
			if cmd.IsSet("height") {
				opts.HeightIn = cmd.Float("height")
			}
			if cmd.IsSet("radius") {
				opts.PointRadius = cmd.Float("radius")
			}

			if err := preview.SaveFile(a.fs, cmd.String("output"), res.Cloud(), res.GlobalShift(), opts); err != nil {
				return fmt.Errorf("preview %s: %w", path, err)
			}
			return nil
		},
	}
}
