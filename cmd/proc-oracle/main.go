//go:build unix

// proc-oracle is the out-of-process conformance fixture for the proc
// package. Each command exercises a process-control operation on the
// oracle's own process and reports the result as one machine-readable
// line on stdout. Running these checks in a separate, minimal process
// keeps signal and session mutations away from the host test runtime.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/posixkit/proc-core/logutil"
	"github.com/posixkit/proc-core/oracle"
	"github.com/posixkit/proc-core/version"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	logutil.SetupFromEnv()
	os.Exit(run())
}

func run() int {
	exitCode := 0
	emit := func(r oracle.Report, code int) {
		fmt.Println(r.Line())
		exitCode = code
	}

	root := &cobra.Command{
		Use:           "proc-oracle",
		Short:         "Process-control conformance fixture speaking a line protocol on stdout",
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "exit [code]",
		Short: "Print the status line and exit with the given code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := optionalCode(args)
			if err != nil {
				return err
			}
			emit(oracle.Exit(code))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "stop-exit [code]",
		Short: "Stop self with SIGSTOP, then print the status line and exit once continued",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := optionalCode(args)
			if err != nil {
				return err
			}
			emit(oracle.StopExit(code))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "verify-parent <ppid>",
		Short: "Succeed iff the actual parent pid equals the argument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ppid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid ppid %q: %w", args[0], err)
			}
			emit(oracle.VerifyParent(ppid))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "create-session",
		Short: "Become a session leader via setsid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emit(oracle.CreateSession())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "double-setsid",
		Short: "Create a session, then assert a second setsid fails as already-leader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emit(oracle.DoubleSetsid())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "become-group-leader",
		Short: "Become own process-group leader via setpgid(0,0) and verify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emit(oracle.BecomeGroupLeader())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "setpgid-explicit",
		Short: "Become own process-group leader via setpgid(pid,pid) and verify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emit(oracle.SetpgidExplicit())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "fork-exit [code]",
		Short: "Spawn a silent child that exits with the given code, reap it, and report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := optionalCode(args)
			if err != nil {
				return err
			}
			emit(oracle.ForkExit(code))
			return nil
		},
	})

	// Plumbing for fork-exit: terminate without touching stdout, like a
	// forked child calling _exit.
	quiet := &cobra.Command{
		Use:    "quiet-exit [code]",
		Hidden: true,
		Args:   cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := optionalCode(args)
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}
	root.AddCommand(quiet)

	root.AddCommand(version.NewCommand("proc-oracle"))

	if err := root.Execute(); err != nil {
		printError(err)
		return 1
	}
	return exitCode
}

func optionalCode(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid exit code %q: %w", args[0], err)
	}
	return code, nil
}

// printError writes a non-protocol diagnostic to stderr, colorized when
// stderr is a terminal.
func printError(err error) {
	msg := "Error: " + err.Error()
	if term.IsTerminal(int(os.Stderr.Fd())) {
		msg = "\033[31m" + msg + "\033[0m"
	}
	fmt.Fprintln(os.Stderr, msg)
}
