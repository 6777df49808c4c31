package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hollowtick/longtail/schema"
)

// profilingEnabled tracks the master on/off toggle. The engine itself has
// no notion of this switch — per spec, enable/disable belong to the
// out-of-scope console collaborator — so profilectl just reports it back;
// a real host would use it to decide whether to install the
// instrumentation wrappers at all.
var profilingEnabled = true

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print engine diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := "disabled"
			if profilingEnabled {
				state = "enabled"
			}
			fmt.Printf("profiling:       %s\n", state)
			fmt.Printf("frame:           %d\n", session.Frame())
			fmt.Printf("trackers:        %d\n", session.TrackerCount())
			fmt.Printf("pool available:  %d\n", session.PoolAvailable())
			if meta, ok := session.ActiveEncounter(); ok {
				fmt.Printf("active encounter: %s (started %s)\n", meta.Kind, meta.StartTime.Format("15:04:05"))
			} else {
				fmt.Println("active encounter: none")
			}
			fmt.Printf("recordings:      %d\n", len(session.Recordings()))
			return nil
		},
	}
}

func enableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable profiling instrumentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			profilingEnabled = true
			fmt.Println("profiling enabled")
			return nil
		},
	}
}

func disableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable profiling instrumentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			profilingEnabled = false
			fmt.Println("profiling disabled")
			return nil
		},
	}
}

func teststartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teststart",
		Short: "Start a manual test encounter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.StartManual(); err != nil {
				return fmt.Errorf("teststart: %w", err)
			}
			fmt.Println("manual encounter started")
			return nil
		},
	}
}

func teststopCmd() *cobra.Command {
	var success bool
	cmd := &cobra.Command{
		Use:   "teststop",
		Short: "Stop the active test encounter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Stop(success); err != nil {
				return fmt.Errorf("teststop: %w", err)
			}
			session.Tick()
			fmt.Println("encounter stopped and flushed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&success, "success", true, "mark the encounter as successful")
	return cmd
}

func watchCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Serve every emitted snapshot over a websocket for live inspection",
		RunE: func(cmd *cobra.Command, args []string) error {
			mux := http.NewServeMux()
			mux.HandleFunc("/", feedHub.Handle)
			srv := &http.Server{Addr: addr, Handler: mux}
			fmt.Printf("devfeed listening on %s (subscribers connect to ws://%s/)\n", addr, addr)
			if err := srv.ListenAndServe(); err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8077", "address to serve the devfeed websocket on")
	return cmd
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema a recording's snapshot must satisfy",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Marshal()
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}
