package main

import (
	"fmt"
	"runtime"

	cli "github.com/urfave/cli/v3"

	"repub/config"
	"repub/convert"
	"repub/misc"
)

var buildHelp = fmt.Sprintf(`%s
SOURCE:
    path to a Markdown or XHTML file, or to a directory which is processed
    recursively. Style sheets and other supported resources found in the
    directory are packed into the book. Book settings are read from %q located
    next to the file or inside the directory.

DESTINATION:
    always a path, output file name is derived from book title or configured
    output name template, if absent - current working directory
`, cli.CommandHelpTemplate, config.BookFileName)

var dumpConfigHelp = fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate)

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "composes EPUB 3 books from Markdown and XHTML sources",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          before,
		After:           after,
		OnUsageError:    onUsageError,
		ExitErrHandler:  onExitError,
		CommandNotFound: onCommandNotFound,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:               "build",
				Usage:              "Composes EPUB book from source file or directory",
				ArgsUsage:          "SOURCE [DESTINATION]",
				OnUsageError:       onUsageError,
				Action:             convert.Run,
				Flags:              convert.BuildFlags(),
				CustomHelpTemplate: buildHelp,
			},
			{
				Name:         "list",
				Usage:        "Lists files packed into EPUB book",
				ArgsUsage:    "BOOK",
				OnUsageError: onUsageError,
				Action:       convert.ListAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Usage: "list only entries starting with `PREFIX`"},
				},
			},
			{
				Name:         "dumpconfig",
				Usage:        "Dumps either default or actual configuration (YAML)",
				ArgsUsage:    "DESTINATION",
				OnUsageError: onUsageError,
				Action:       dumpConfig,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				CustomHelpTemplate: dumpConfigHelp,
			},
		},
	}
}
