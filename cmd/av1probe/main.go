/*
DESCRIPTION
  av1probe is a bare bones program for exercising the AV1 OBU demultiplexer
  against a raw OBU elementary stream, printing each parsed sequence header
  and the counters accumulated while demuxing the rest of the file.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the av1probe command.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/av1/obu"
	"github.com/ausocean/av1/obulog"
	"github.com/ausocean/utils/logging"
)

func main() {
	var (
		strict      = flag.Bool("strict", false, "Enable strict-compliance bitstream checks.")
		maxWidth    = flag.Uint("max-width", 0, "Reject frames wider than this many pixels (0 = unlimited).")
		maxHeight   = flag.Uint("max-height", 0, "Reject frames taller than this many pixels (0 = unlimited).")
		operatingPt = flag.Int("operating-point", 0, "Operating point index to select.")
		logFile     = flag.String("log-file", "", "Path to a log file (rotated via lumberjack); empty disables logging.")
		verbosity   = flag.String("verbosity", "warning", "Logging verbosity: debug, info, warning, error, fatal.")
		typeFilter  = flag.String("frame-type-filter", "all", "One of: all, reference, key.")
	)
	flag.Parse()

	var logVerbosity int8
	switch *verbosity {
	case "debug":
		logVerbosity = logging.Debug
	case "info":
		logVerbosity = logging.Info
	case "warning":
		logVerbosity = logging.Warning
	case "error":
		logVerbosity = logging.Error
	case "fatal":
		logVerbosity = logging.Fatal
	default:
		fmt.Fprintf(os.Stderr, "av1probe: unknown -verbosity %q\n", *verbosity)
		os.Exit(2)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: av1probe [flags] <obu-stream-file>")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "av1probe:", err)
		os.Exit(1)
	}

	ctx := obu.NewDecoderContext()
	ctx.Strict = *strict
	ctx.MaxFrameWidth = uint32(*maxWidth)
	ctx.MaxFrameHeight = uint32(*maxHeight)

	switch *typeFilter {
	case "all":
		ctx.FrameTypeFilt = obu.FilterAll
	case "reference":
		ctx.FrameTypeFilt = obu.FilterReferenceOnly
	case "key":
		ctx.FrameTypeFilt = obu.FilterKeyOnly
	default:
		fmt.Fprintf(os.Stderr, "av1probe: unknown -frame-type-filter %q\n", *typeFilter)
		os.Exit(2)
	}

	if *logFile != "" {
		l, err := obulog.NewZap(*logFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "av1probe: could not open log file:", err)
			os.Exit(1)
		}
		l.SetLevel(logVerbosity)
		ctx.Log = l
	}

	if seq, err := obu.ParseSequenceHeader(data, *strict); err != nil {
		fmt.Fprintln(os.Stderr, "av1probe: no sequence header found:", err)
	} else {
		fmt.Printf("sequence header: profile=%d %dx%d bit_depth=%d monochrome=%v operating_points=%d\n",
			seq.Profile, seq.MaxFrameWidthMinus1+1, seq.MaxFrameHeightMinus1+1,
			seq.BitDepth, seq.Monochrome, len(seq.OperatingPoints))
	}

	remaining := data
	selectedOperatingPoint := false
	for len(remaining) > 0 {
		consumed, err := obu.ParseOBUs(ctx, remaining)
		if err != nil {
			fmt.Fprintln(os.Stderr, "av1probe: parse error:", err)
			break
		}
		if consumed == 0 {
			break
		}
		remaining = remaining[consumed:]

		if !selectedOperatingPoint && ctx.Seq != nil {
			if err := ctx.SelectOperatingPoint(*operatingPt); err != nil {
				fmt.Fprintln(os.Stderr, "av1probe:", err)
			}
			selectedOperatingPoint = true
		}
	}

	fmt.Printf("frames submitted=%d skipped=%d emitted=%d bytes_consumed=%d\n",
		ctx.Stats.FramesSubmitted, ctx.Stats.FramesSkipped, ctx.Stats.FramesEmitted, ctx.Stats.BytesConsumed)
}
