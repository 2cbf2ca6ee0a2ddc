// Command carfile extracts the single UnixFS file described by a CAR
// stream, either buffering the whole DAG in memory or writing it out with
// seeks as blocks arrive.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	carfile "github.com/ipld/go-carfile"
)

func main() {
	app := &cli.App{
		Name:  "carfile",
		Usage: "reconstruct a single UnixFS file from a CAR stream",
		Commands: []*cli.Command{
			extractCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var extractCommand = &cli.Command{
	Name:      "extract",
	Usage:     "write the file described by a CAR (read from stdin when car-file is omitted or \"-\") to a file or stdout",
	ArgsUsage: "[car-file] [out-file]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "root",
			Usage: "require the CAR's root CID to equal this value",
		},
		&cli.BoolFlag{
			Name:  "seek",
			Usage: "use the streaming seek reconstructor instead of buffering",
		},
		&cli.Int64Flag{
			Name:  "max-buffer",
			Usage: "cap buffered leaf bytes (buffered mode only), 0 for unlimited",
		},
		&cli.Int64Flag{
			Name:  "write-limit",
			Usage: "cap total bytes written (seek mode only), 0 for unlimited",
		},
	},
	Action: func(c *cli.Context) (err error) {
		in := os.Stdin
		if path := c.Args().First(); path != "" && path != "-" {
			f, openErr := os.Open(path)
			if openErr != nil {
				return openErr
			}
			defer func() { err = multierr.Append(err, f.Close()) }()
			in = f
		}

		source, err := carfile.NewCarSource(in)
		if err != nil {
			return err
		}

		var opts []carfile.Option
		if r := c.String("root"); r != "" {
			root, parseErr := cid.Parse(r)
			if parseErr != nil {
				return fmt.Errorf("parsing --root: %w", parseErr)
			}
			opts = append(opts, carfile.WithExpectedRoot(root))
		}

		ctx := context.Background()

		if c.Bool("seek") {
			outPath := c.Args().Get(1)
			if outPath == "" {
				return fmt.Errorf("seek mode requires an output file path, stdout does not support seeking")
			}
			out, createErr := os.Create(outPath)
			if createErr != nil {
				return createErr
			}
			defer func() { err = multierr.Append(err, out.Close()) }()

			if limit := c.Int64("write-limit"); limit > 0 {
				opts = append(opts, carfile.WithWriteLimit(int(limit)))
			}
			return carfile.ReconstructSeek(ctx, source, out, opts...)
		}

		out := os.Stdout
		if outPath := c.Args().Get(1); outPath != "" {
			f, createErr := os.Create(outPath)
			if createErr != nil {
				return createErr
			}
			defer func() { err = multierr.Append(err, f.Close()) }()
			out = f
		}

		if limit := c.Int64("max-buffer"); limit > 0 {
			opts = append(opts, carfile.WithMaxBuffer(int(limit)))
		}
		return carfile.ReconstructBuffered(ctx, source, out, opts...)
	},
}
