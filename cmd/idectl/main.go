// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/alecthomas/kong"

	"github.com/open-source-firmware/go-atadev/pkg/cmdutil"
	"github.com/open-source-firmware/go-atadev/pkg/logger"
)

const (
	programName = "idectl"
	programDesc = "ATA/ATAPI unit control"
)

func main() {
	// Parse kong flags and sub-commands
	ctx := kong.Parse(&cli,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.Resolvers(cmdutil.ResolveConfirm()),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	ctx.FatalIfErrorf(cli.Setup())

	c, err := newContext()
	ctx.FatalIfErrorf(err)

	// Run the command
	err = ctx.Run(c)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	logger.Flush()
	ctx.FatalIfErrorf(err)
}
