package convert

import (
	"strings"

	cli "github.com/urfave/cli/v3"

	"repub/config"
)

// BuildFlags returns flags of build command. Book settings given explicitly
// take precedence over persisted book configuration.
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "book `TITLE`"},
		&cli.StringFlag{Name: "creator", Aliases: []string{"a"}, Usage: "book author or other `CREATOR`"},
		&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "book `LANGUAGE` (BCP 47 tag)"},
		&cli.StringFlag{Name: "bookid", Usage: "unique book `IDENTIFIER`, generated when absent"},
		&cli.StringFlag{Name: "mode", Aliases: []string{"m"},
			Usage: "writing `MODE` (supported modes: " + strings.Join(config.WritingModeNames(), ", ") + ")"},
		&cli.IntFlag{Name: "toc-level", Usage: "deepest heading `LEVEL` visible in table of contents (1-5)"},
		&cli.StringFlag{Name: "cover", Usage: "cover image `FILE` relative to source root"},
		&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "keep staging directory after processing"},
		&cli.BoolFlag{Name: "save-config", Usage: "write resulting book configuration next to the source"},
	}
}
