package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func (a *app) verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Read files and fail if any produces warnings or errors",
		ArgsUsage: "<file.sbf>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return fmt.Errorf("verify: expected at least one <file.sbf> argument")
			}

			w := cmd.Root().Writer
			failed := 0
			for _, path := range cmd.Args().Slice() {
				res, err := a.codec.Read(path)
				if err != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
					failed++
					continue
				}
				if len(res.Warnings) > 0 {
					for _, warn := range res.Warnings {
						fmt.Fprintf(w, "WARN %s\n", warn)
					}
					failed++
					continue
				}
				fmt.Fprintf(w, "OK   %s\n", res)
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", errVerifyFailed, failed, cmd.NArg())
			}
			return nil
		},
	}
}
