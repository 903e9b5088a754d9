package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetherlab/tether"
	"github.com/urfave/cli/v2"
)

// parseRequest runs the real app's flag definitions over argv and captures
// the request the action would hand to the client.
func parseRequest(t *testing.T, argv []string) tether.DoRequest {
	t.Helper()
	var got tether.DoRequest
	app := newApp()
	app.Action = func(c *cli.Context) error {
		got = doRequest(c, c.String("working-dir"), c.String("temp-dir"))
		return nil
	}
	require.NoError(t, app.Run(append([]string{"tether"}, argv...)))
	return got
}

func TestFlagsMapOntoRequest(t *testing.T) {
	cases := []struct {
		name string
		argv []string
		exp  tether.DoRequest
	}{
		{
			name: "defaults",
			argv: []string{"--channel", "demo"},
			exp: tether.DoRequest{
				ChannelID:              "demo",
				NewProcessTimeout:      tether.DefaultNewProcessTimeout,
				ExistingProcessTimeout: tether.DefaultExistingProcessTimeout,
			},
		},
		{
			name: "everything set",
			argv: []string{
				"--channel", "build-chan",
				"--working-dir", "/work",
				"--temp-dir", "/scratch",
				"--new-process-timeout", "30s",
				"--existing-process-timeout", "500ms",
				"--keep-alive", "60",
				"--debug",
				"build", "./...",
			},
			exp: tether.DoRequest{
				ChannelID:              "build-chan",
				WorkingDir:             "/work",
				TempDir:                "/scratch",
				Args:                   []string{"build", "./..."},
				KeepAliveSeconds:       60,
				Debug:                  true,
				NewProcessTimeout:      30 * time.Second,
				ExistingProcessTimeout: 500 * time.Millisecond,
			},
		},
		{
			name: "worker args after terminator",
			argv: []string{"--channel", "demo", "--", "--not-a-flag", "x"},
			exp: tether.DoRequest{
				ChannelID:              "demo",
				Args:                   []string{"--not-a-flag", "x"},
				NewProcessTimeout:      tether.DefaultNewProcessTimeout,
				ExistingProcessTimeout: tether.DefaultExistingProcessTimeout,
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := parseRequest(t, c.argv)
			if len(got.Args) == 0 {
				got.Args = nil
			}
			assert.Equal(t, c.exp, got)
		})
	}
}

func TestMissingChannelFlagFails(t *testing.T) {
	app := newApp()
	app.Action = func(c *cli.Context) error { return nil }
	err := app.Run([]string{"tether"})
	require.Error(t, err)
}
