package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"repub/archive"
	"repub/state"
)

// ListAction is the action of list command.
func ListAction(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	name := cmd.Args().Get(0)
	if len(name) == 0 {
		return errors.New("no book has been specified")
	}
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	w := io.Writer(os.Stdout)
	if root := cmd.Root(); root != nil && root.Writer != nil {
		w = root.Writer
	}
	return List(name, cmd.String("prefix"), w)
}

// List writes names and sizes of files in book archive which start with
// prefix.
func List(name, prefix string, w io.Writer) error {
	var total uint64
	count := 0
	err := archive.Walk(name, prefix, func(f *zip.File) error {
		count++
		total += f.UncompressedSize64
		_, err := fmt.Fprintf(w, "%10d  %-7s  %s\n", f.UncompressedSize64, method(f.Method), f.Name)
		return err
	})
	if err != nil {
		return fmt.Errorf("unable to list %s: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "%10d  %-7s  %d files\n", total, "", count)
	return err
}

func method(m uint16) string {
	switch m {
	case zip.Store:
		return "stored"
	case zip.Deflate:
		return "deflate"
	}
	return fmt.Sprintf("m%d", m)
}
