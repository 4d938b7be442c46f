// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

// ResolveConfirm returns a kong.Resolver that asks on the terminal before a
// destructive command runs. It applies to bool flags tagged type:"confirm"
// that were not given on the command line. Without a terminal the flag is
// left false and the command is expected to refuse.
func ResolveConfirm() kong.Resolver {
	return resolveConfirm(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

func resolveConfirm(in io.Reader, out io.Writer, interactive bool) kong.Resolver {
	return kong.ResolverFunc(func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if flag.Tag.Type != "confirm" || flag.Value.Set && !flag.Value.Target.IsZero() || !interactive {
			return nil, nil
		}
		if flag.Target.Kind() != reflect.Bool {
			return nil, fmt.Errorf(`'confirm' type must be applied to a bool not %s`, flag.Target.Type())
		}
		if cmd := ctx.Selected(); cmd == nil || !hasFlag(cmd, flag) {
			return nil, nil
		}

		fmt.Fprintf(out, "%s. Continue? [y/N]: ", flag.Help)
		line, err := bufio.NewReader(in).ReadString('\n')
		fmt.Fprint(out, "\n")
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("answer could not be read: %v", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func hasFlag(cmd *kong.Node, flag *kong.Flag) bool {
	for _, f := range cmd.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
