// Package convert implements program commands working with books.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"repub/archive"
	"repub/compose"
	"repub/config"
	"repub/source"
	"repub/state"
)

// Run is the action of build command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if env.Build.Overrides, err = overrides(cmd); err != nil {
		return err
	}
	env.Build.PreserveStaging = cmd.Bool("save") || env.Cfg.Document.PreserveStaging
	env.Build.SaveBook = cmd.Bool("save-config")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	out, err := Build(ctx, src, dst, env)
	if err != nil {
		return err
	}
	log.Info("Book created", zap.String("file", out))
	return nil
}

// overrides collects book settings explicitly requested on command line.
func overrides(cmd *cli.Command) (config.Overrides, error) {
	var o config.Overrides

	str := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}
	o.Title = str("title")
	o.Creator = str("creator")
	o.Language = str("language")
	o.BookID = str("bookid")
	o.CoverImage = str("cover")

	if cmd.IsSet("mode") {
		mode, err := config.ParseWritingMode(cmd.String("mode"))
		if err != nil {
			return o, fmt.Errorf("bad writing mode: %w", err)
		}
		o.WritingMode = &mode
	}
	if cmd.IsSet("toc-level") {
		level := int(cmd.Int("toc-level"))
		o.TOCLevel = &level
	}
	return o, nil
}

// Build composes EPUB from file or directory src and places result into
// directory dst. It returns location of produced book.
func Build(ctx context.Context, src, dst string, env *state.LocalEnv) (out string, err error) {
	log := env.Log.Named("build")

	bookPath, err := config.BookPath(src)
	if err != nil {
		return "", fmt.Errorf("input source was not found: %w", err)
	}
	book, found, err := config.LoadBook(bookPath)
	if err != nil {
		return "", err
	}
	if found {
		log.Debug("Using book configuration", zap.String("file", bookPath))
		env.Rpt.Store("book/"+config.BookFileName, bookPath)
	}
	book.Merge(env.Build.Overrides)
	if err := book.Complete(&env.Cfg.Document); err != nil {
		return "", fmt.Errorf("bad book configuration: %w", err)
	}

	files, err := source.Discover(src, config.BookFileName)
	if err != nil {
		return "", err
	}
	log.Info("Sources discovered", zap.String("root", files.Root),
		zap.Int("content", len(files.Content)), zap.Int("styles", len(files.Styles)), zap.Int("static", len(files.Static)))

	staging, err := compose.NewStaging()
	if err != nil {
		return "", err
	}
	defer func() {
		if er := env.Rpt.StoreCopy("staging", staging.Root); er != nil {
			log.Warn("Unable to store staging tree in report", zap.Error(er))
		}
		if env.Build.PreserveStaging {
			log.Info("Staging tree preserved", zap.String("location", staging.Root))
		}
		err = multierr.Append(err, staging.Close(env.Build.PreserveStaging))
	}()

	c := compose.New(files, book, &env.Cfg.Document, staging, env.Log)
	out, err = c.Compose(ctx, dst)

	env.Rpt.StoreData("compose/toc.txt", []byte(c.TOC().String()))
	env.Rpt.StoreData("compose/registry.txt", []byte(c.Registry().String()))
	if err != nil {
		return "", fmt.Errorf("unable to build book (stage %s): %w", c.Stage(), err)
	}
	env.Rpt.Store("result/"+filepath.Base(out), out)

	names, err := archive.Entries(out)
	if err != nil {
		return "", fmt.Errorf("unable to read produced book: %w", err)
	}
	log.Debug("Book packed", zap.String("file", out), zap.Int("entries", len(names)))
	env.Rpt.StoreData("compose/entries.txt", []byte(strings.Join(names, "\n")+"\n"))

	if env.Build.SaveBook {
		if err := book.Save(bookPath); err != nil {
			return "", err
		}
		log.Info("Book configuration saved", zap.String("file", bookPath))
	}
	return out, nil
}
