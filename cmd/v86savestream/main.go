// Command v86savestream is the CLI front-end for the savestream codec. It
// knows about files, argv, and stdio so the codec itself doesn't have to:
// every subcommand reads bytes off disk, hands them to the savestream
// package, and writes bytes back.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	savestream "github.com/sumitshetye2/v86-savestreams"
)

func main() {
	app := cli.App{
		Name:  "v86savestream",
		Usage: "Compress and decompress sequences of v86 save states",
		Commands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
			trimCommand(),
			infoCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode v86 save states into a savestream",
		ArgsUsage: "IN1 IN2 ... OUT.savestream",
		Action: func(c *cli.Context) error {
			args := c.Args().Slice()
			if len(args) < 2 {
				return fmt.Errorf("encode requires at least one input file and an output file")
			}
			inputPaths, outputPath := args[:len(args)-1], args[len(args)-1]

			states, err := readAll(inputPaths)
			if err != nil {
				return err
			}

			encoded, err := savestream.Encode(states)
			if err != nil {
				return fmt.Errorf("failed to encode: %w", err)
			}

			if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}

			fmt.Printf("Encoded %d save states to %s\n", len(states), outputPath)
			return nil
		},
	}
}

// readAll reads every named input file, aggregating every failure into a
// single multierror rather than aborting on the first one, so a user fixing
// a batch of typo'd filenames sees the whole list in one run.
func readAll(paths []string) ([][]byte, error) {
	states := make([][]byte, len(paths))
	var errs *multierror.Error
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = savestream.AppendError(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		states[i] = data
	}
	if errs != nil {
		return nil, errs
	}
	return states, nil
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a savestream into individual v86 save states",
		ArgsUsage: "IN.savestream OUT_DIR",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "index", Usage: "decode only the save state at this index"},
		},
		Action: func(c *cli.Context) error {
			args := c.Args().Slice()
			if len(args) != 2 {
				return fmt.Errorf("decode requires an input savestream and an output directory")
			}
			inputPath, outDir := args[0], args[1]

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", inputPath, err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}

			if c.IsSet("index") {
				index := c.Int("index")
				state, err := savestream.DecodeOne(data, index)
				if err != nil {
					return fmt.Errorf("failed to decode index %d: %w", index, err)
				}
				outPath := filepath.Join(outDir, fmt.Sprintf("%d.bin", index))
				if err := os.WriteFile(outPath, state, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outPath, err)
				}
				fmt.Printf("Decoded state %d to %s\n", index, outPath)
				return nil
			}

			states, err := savestream.Decode(data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", inputPath, err)
			}
			for i, state := range states {
				outPath := filepath.Join(outDir, fmt.Sprintf("%d.bin", i))
				if err := os.WriteFile(outPath, state, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outPath, err)
				}
			}
			fmt.Printf("Decoded %d states to %s\n", len(states), outDir)
			return nil
		},
	}
}

func trimCommand() *cli.Command {
	return &cli.Command{
		Name:      "trim",
		Usage:     "Trim a savestream to a half-open range of indices",
		ArgsUsage: "IN.savestream OUT.savestream START [END]",
		Action: func(c *cli.Context) error {
			args := c.Args().Slice()
			if len(args) < 3 || len(args) > 4 {
				return fmt.Errorf("trim requires an input, an output, a start index, and an optional end index")
			}
			inputPath, outputPath := args[0], args[1]

			start, err := parseIndexArg(args[2])
			if err != nil {
				return fmt.Errorf("invalid start index %q: %w", args[2], err)
			}

			var end *int
			if len(args) == 4 {
				e, err := parseIndexArg(args[3])
				if err != nil {
					return fmt.Errorf("invalid end index %q: %w", args[3], err)
				}
				end = &e
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", inputPath, err)
			}

			trimmed, err := savestream.Trim(data, start, end)
			if err != nil {
				return fmt.Errorf("failed to trim: %w", err)
			}

			if err := os.WriteFile(outputPath, trimmed, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}

			if end == nil {
				fmt.Printf("Trimmed savestream saved to %s from index %d to the end\n", outputPath, start)
			} else {
				fmt.Printf("Trimmed savestream saved to %s from index %d to %d\n", outputPath, start, *end)
			}
			return nil
		},
	}
}

func parseIndexArg(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// infoRow is one line of the --csv report: one savestream's statistics.
type infoRow struct {
	File             string  `csv:"file"`
	Frames           int     `csv:"frames"`
	SizeBytes        int     `csv:"size_bytes"`
	AvgBytesPerFrame float64 `csv:"avg_bytes_per_frame"`
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print frame count, size, and average frame size for a savestream",
		ArgsUsage: "IN.savestream",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Usage: "also write the report as a one-row CSV file"},
		},
		Action: func(c *cli.Context) error {
			args := c.Args().Slice()
			if len(args) != 1 {
				return fmt.Errorf("info requires exactly one input savestream")
			}
			inputPath := args[0]

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", inputPath, err)
			}

			frames, err := savestream.Length(data)
			if err != nil {
				return fmt.Errorf("failed to inspect %s: %w", inputPath, err)
			}

			row := infoRow{File: inputPath, Frames: frames, SizeBytes: len(data)}
			if frames > 0 {
				row.AvgBytesPerFrame = float64(len(data)) / float64(frames)
			}

			fmt.Printf("Savestream file: %s\n", row.File)
			fmt.Printf("Number of save states: %d\n", row.Frames)
			fmt.Printf("Savestream size: %d bytes\n", row.SizeBytes)
			if frames > 0 {
				fmt.Printf("Average save state size: %.2f bytes\n", row.AvgBytesPerFrame)
			}

			if csvPath := c.String("csv"); csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", csvPath, err)
				}
				defer f.Close()
				if err := gocsv.MarshalFile([]*infoRow{&row}, f); err != nil {
					return fmt.Errorf("failed to write %s: %w", csvPath, err)
				}
			}

			return nil
		},
	}
}
