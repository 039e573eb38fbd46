package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/pglira/cloudcompare-sbf-io/internal/sbf"
	"github.com/pglira/cloudcompare-sbf-io/internal/summary"
)

type headerEntry struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type payloadInfo struct {
	Points       uint64   `json:"points"`
	ScalarFields int16    `json:"scalar_fields"`
	GlobalShift  sbf.Vec3 `json:"global_shift"`
	MagicOK      bool     `json:"magic_ok"`
}

type infoReport struct {
	Path     string           `json:"path"`
	Header   []headerEntry    `json:"header"`
	Payload  *payloadInfo     `json:"payload,omitempty"`
	Summary  *summary.Summary `json:"summary,omitempty"`
	Warnings []string         `json:"warnings"`
}

func newInfoReport(path string, h *sbf.Header, warnings []sbf.Warning) *infoReport {
	rep := &infoReport{Path: path, Warnings: make([]string, 0, len(warnings))}
	for _, k := range h.Keys() {
		v, _ := h.Get(k)
		rep.Header = append(rep.Header, headerEntry{Key: k, Kind: v.Kind.String(), Value: v.String()})
	}
	for _, w := range warnings {
		rep.Warnings = append(rep.Warnings, w.String())
	}
	return rep
}

func (a *app) infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print the header, payload metadata and channel statistics of a file",
		ArgsUsage: "<file.sbf>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print a JSON report"},
			&cli.BoolFlag{Name: "header-only", Usage: "read only the header file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := inputArg(cmd)
			if err != nil {
				return err
			}

			var rep *infoReport
			if cmd.Bool("header-only") {
				h, warnings, err := a.codec.ReadHeader(path)
				if err != nil {
					return err
				}
				rep = newInfoReport(path, h, warnings)
			} else {
				res, err := a.codec.Read(path)
				if err != nil {
					return err
				}
				rep = newInfoReport(path, res.Header, res.Warnings)
				rep.Payload = &payloadInfo{
					Points:       res.Payload.PointCount,
					ScalarFields: res.Payload.ScalarFieldCount,
					GlobalShift:  res.GlobalShift(),
					MagicOK:      res.Payload.ValidMagic(),
				}
				s := summary.Summarize(res.Cloud(), fieldNames(res), res.GlobalShift())
				rep.Summary = &s
			}

			w := cmd.Root().Writer
			if cmd.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return rep.writeText(w)
		},
	}
}

func (rep *infoReport) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", rep.Path)

	fmt.Fprintf(tw, "\nHeader:\n")
	for _, e := range rep.Header {
		fmt.Fprintf(tw, "  %s\t%s\t(%s)\n", e.Key, e.Value, e.Kind)
	}

	if p := rep.Payload; p != nil {
		fmt.Fprintf(tw, "\nPayload:\n")
		fmt.Fprintf(tw, "  points\t%d\n", p.Points)
		fmt.Fprintf(tw, "  scalar fields\t%d\n", p.ScalarFields)
		fmt.Fprintf(tw, "  global shift\t%v, %v, %v\n", p.GlobalShift[0], p.GlobalShift[1], p.GlobalShift[2])
		fmt.Fprintf(tw, "  magic ok\t%t\n", p.MagicOK)
	}

	if s := rep.Summary; s != nil && s.Points > 0 {
		fmt.Fprintf(tw, "\nChannels:\n")
		fmt.Fprintf(tw, "  name\tmin\tmax\tmean\tstd dev\n")
		for _, c := range s.Channels {
			fmt.Fprintf(tw, "  %s\t%.6g\t%.6g\t%.6g\t%.6g\n", c.Name, c.Min, c.Max, c.Mean, c.StdDev)
		}
		fmt.Fprintf(tw, "\nWorld bounds:\n")
		fmt.Fprintf(tw, "  min\t%.3f, %.3f, %.3f\n", s.World.Min[0], s.World.Min[1], s.World.Min[2])
		fmt.Fprintf(tw, "  max\t%.3f, %.3f, %.3f\n", s.World.Max[0], s.World.Max[1], s.World.Max[2])
	}

	fmt.Fprintf(tw, "\nWarnings:\t%d\n", len(rep.Warnings))
	for _, warn := range rep.Warnings {
		fmt.Fprintf(tw, "  %s\n", warn)
	}
	return tw.Flush()
}
