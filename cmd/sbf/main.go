// Command sbf inspects, verifies, generates and converts CloudCompare SBF
// point clouds.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.command().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errVerifyFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
