// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlags are shared by every command that reads configuration.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "Path to a .env file loaded before the environment is read",
			Value: ".env",
		},
	}
}

// urlFlag points client commands at a running server.
func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "url",
		Aliases: []string{"u"},
		Usage:   "Base URL of a running vibesync server",
		Value:   "http://127.0.0.1:8000",
		Sources: cli.EnvVars("VIBESYNC_URL"),
	}
}

// serveCommand starts the HTTP service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the comparison web service",
		Flags: append(configFlags(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config and PORT)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the frontend in the default browser once listening",
			},
		),
		Action: r.Serve,
	}
}

// configCommand manages the configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path of the file to create",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration with secrets masked",
				Flags: append(configFlags(),
					&cli.BoolFlag{
						Name:  "validate",
						Usage: "Fail if the configuration could not start a server",
					},
				),
				Action: r.ConfigShow,
			},
		},
	}
}

// healthCommand probes a running server.
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check that a server is up (calls /health)",
		Flags:  []cli.Flag{urlFlag()},
		Action: r.Health,
	}
}

// roomCommand inspects rooms on a running server.
func roomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "room",
		Usage: "Room operations against a running server",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Check whether a room code is waiting and who created it",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "code"},
				},
				Flags:  []cli.Flag{urlFlag()},
				Action: r.RoomCheck,
			},
		},
	}
}

// compareCommand compares two libraries without going through the pairing flow.
func compareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Compare the libraries behind two credentials issued by this server",
		Flags: append(configFlags(),
			&cli.StringFlag{
				Name:     "a",
				Usage:    "Credential of the first user",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "b",
				Usage:    "Credential of the second user",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Browse the result in an interactive viewer",
			},
		),
		Action: r.Compare,
	}
}
