// Command profilectl is a small harness for exercising the long-tail
// profiler engine from a terminal: start and stop encounters by hand,
// inspect pool/tracker state, and print the wire schema a recording must
// satisfy. It is a development aid, not part of any host integration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowtick/longtail/engine"
	"github.com/hollowtick/longtail/internal/devfeed"
)

// feedHub fans out every emitted snapshot to whatever the watch command's
// HTTP server has upgraded to a websocket. It is harmless to construct even
// when nothing ever connects.
var feedHub = devfeed.New(nil)

// session is the one long-lived Engine this process drives. profilectl is
// meant to be run interactively against a single in-process engine for
// the lifetime of the command invocation; persisting state across
// separate invocations is out of scope.
var session = newSession()

func newSession() *engine.Engine {
	cfg := engine.DefaultConfig()
	cfg.OnSnapshot = feedHub.Broadcast
	return engine.New(cfg, nil)
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profilectl",
		Short: "profilectl drives a long-tail profiler engine for manual testing.",
	}

	cmd.AddCommand(
		statusCmd(),
		enableCmd(),
		disableCmd(),
		teststartCmd(),
		teststopCmd(),
		watchCmd(),
		schemaCmd(),
	)

	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
