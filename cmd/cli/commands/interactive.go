package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load config once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against the same portal session.
Boards loaded by one command are reused by the next, so confirm and reject act on what you last saw.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(app.Out, "\n🚀 Starting interactive session...")
			fmt.Fprintln(app.Out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

			// Get all sibling commands (excluding interactive itself)
			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			input := app.Input()

			for {
				fmt.Fprint(app.Out, "> ")

				raw, err := input.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("error reading input: %w", err)
				}
				eof := errors.Is(err, io.EOF)

				line := strings.TrimSpace(raw)
				if line == "" {
					if eof {
						return nil
					}
					continue
				}

				// Parse command (respecting quotes)
				parts, perr := parseCommandLine(line)
				if perr != nil {
					fmt.Fprintf(app.Out, "❌ Error parsing command: %v\n\n", perr)
					continue
				}
				if len(parts) == 0 {
					continue
				}
				cmdName := parts[0]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Fprintln(app.Out, "👋 Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(app.Out, commands)
					continue
				}

				topCmd, exists := commands[cmdName]
				if !exists {
					fmt.Fprintf(app.Out, "❌ Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				runInteractive(app.Out, topCmd, parts[1:])

				if eof {
					return nil
				}
			}
		},
	}

	return cmd
}

// runInteractive resolves subcommands and runs the target's RunE directly,
// bypassing Execute so PersistentPreRunE does not initialise the app again
func runInteractive(out io.Writer, topCmd *cobra.Command, args []string) {
	targetCmd, cmdArgs, err := topCmd.Find(args)
	if err != nil {
		fmt.Fprintf(out, "❌ Error: %v\n\n", err)
		return
	}

	// Reset command flags left over from a previous run
	targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		_ = flag.Value.Set(flag.DefValue)
	})

	if err := targetCmd.ParseFlags(cmdArgs); err != nil {
		fmt.Fprintf(out, "❌ Error parsing flags: %v\n\n", err)
		return
	}
	cmdArgs = targetCmd.Flags().Args()

	if targetCmd.RunE == nil && targetCmd.Run == nil {
		fmt.Fprintf(out, "%s\n\n", targetCmd.UsageString())
		return
	}

	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
			return
		}
	}

	if targetCmd.RunE != nil {
		if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
		}
		return
	}
	targetCmd.Run(targetCmd, cmdArgs)
}

func printInteractiveHelp(out io.Writer, commands map[string]*cobra.Command) {
	fmt.Fprintln(out, "\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(out, "  %-40s %s\n", cmd.Use, cmd.Short)
		for _, sub := range cmd.Commands() {
			fmt.Fprintf(out, "    %-38s %s\n", sub.Use, sub.Short)
		}
	}

	fmt.Fprintln(out, "\n  help                                     Show this help message")
	fmt.Fprintln(out, "  exit, quit                               Exit the interactive session")
}

// parseCommandLine splits a command line into arguments, respecting quoted strings.
// Supports both single and double quotes.
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune // 0 if not in quote, '"' or '\'' if in quote
	quoted := false

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
			quoted = true
		case unicode.IsSpace(r):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args, nil
}
