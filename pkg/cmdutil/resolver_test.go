// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type confirmCLI struct {
	Write struct {
		Yes bool `type:"confirm" help:"Overwrite blocks on unit 0"`
	} `cmd:""`
	Read struct{} `cmd:""`
}

func parseConfirm(t *testing.T, answer string, interactive bool, args ...string) (confirmCLI, string) {
	t.Helper()
	var cli confirmCLI
	var out bytes.Buffer
	parser, err := kong.New(&cli,
		kong.Resolvers(resolveConfirm(strings.NewReader(answer), &out, interactive)),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return cli, out.String()
}

func TestResolveConfirm(t *testing.T) {
	cli, prompt := parseConfirm(t, "y\n", true, "write")
	assert.True(t, cli.Write.Yes)
	assert.Contains(t, prompt, "Overwrite blocks on unit 0. Continue? [y/N]")

	cli, _ = parseConfirm(t, "\n", true, "write")
	assert.False(t, cli.Write.Yes)

	cli, prompt = parseConfirm(t, "y\n", false, "write")
	assert.False(t, cli.Write.Yes)
	assert.Empty(t, prompt)

	_, prompt = parseConfirm(t, "y\n", true, "read")
	assert.Empty(t, prompt)
}

func TestBusEmbedOpen(t *testing.T) {
	tests := []struct {
		name string
		b    BusEmbed
	}{
		{"nothing", BusEmbed{}},
		{"mixed", BusEmbed{CDROM: []string{NoMedium}, SG: []string{"/dev/sda"}}},
		{"too many", BusEmbed{CDROM: []string{NoMedium, NoMedium, NoMedium, NoMedium, NoMedium}}},
		{"missing image", BusEmbed{Disk: []string{"/nonexistent/disk.img"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Open()
			assert.Error(t, err)
		})
	}

	b := BusEmbed{CDROM: []string{NoMedium, NoMedium, NoMedium}}
	bus, err := b.Open()
	require.NoError(t, err)
	defer bus.Close()
	assert.Equal(t, 2, bus.Channels())
}
