// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/alecthomas/kong"
)

// CLI is the command line.
type CLI struct {
	Files []string `name:"file" short:"f" type:"existingfile" help:"Configuration file(s) to merge, in order."`

	Serve    ServeCmd    `cmd:"" default:"1" help:"Run the HTTP and MQTT control service."`
	Set      SetCmd      `cmd:"" help:"Set a wiper and exit."`
	Reset    ResetCmd    `cmd:"" help:"Return a device to midscale and exit."`
	Shutdown ShutdownCmd `cmd:"" help:"Put a device into shutdown, or wake it, and exit."`
	Status   StatusCmd   `cmd:"" help:"Show the devices known to a running service."`
	Config   ConfigCmd   `cmd:"" help:"Print the merged configuration."`
}

func main() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name(applicationName),
		kong.Description("Control AD8400/AD8402/AD8403 digital potentiometers."),
		kong.UsageOnError(),
	)

	ctx.FatalIfErrorf(ctx.Run(&cli))
}
