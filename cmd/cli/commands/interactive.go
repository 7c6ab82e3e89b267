package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jakechorley/shift-ledger/pkg/core/model"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (log in once, run multiple commands)",
		Long: `Start an interactive session where you log in once and run multiple commands.
Logging out asks for confirmation. The session keeps running until you type
'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\nStarting interactive session...")
			fmt.Fprintln(out, "Type 'login <user>' to begin, 'help' for available commands, 'exit' or 'quit' to leave")

			// Sibling commands, excluding the ones that make no sense inside a session
			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				switch subCmd.Name() {
				case "interactive", "completion", "help", "serve":
					continue
				}
				commands[subCmd.Name()] = subCmd
			}

			s := &interactiveSession{
				app:     app,
				out:     out,
				scanner: bufio.NewScanner(cmd.InOrStdin()),
			}
			// Logins only happen through the login command here
			app.User = ""
			if app.Session == nil {
				app.Session = model.NewSession()
			}

			for {
				line, ok := s.prompt("> ")
				if !ok {
					break
				}
				if line == "" {
					continue
				}

				parts, err := parseCommandLine(line)
				if err != nil {
					fmt.Fprintf(out, "❌ Error parsing command: %v\n\n", err)
					continue
				}
				if len(parts) == 0 {
					continue
				}
				cmdName := parts[0]
				cmdArgs := parts[1:]

				switch cmdName {
				case "exit", "quit":
					if s.confirmLogout() {
						fmt.Fprintln(out, "👋 Goodbye!")
						return nil
					}
					continue
				case "help":
					printInteractiveHelp(out, commands)
					continue
				case "login":
					s.login(cmdArgs)
					continue
				case "logout":
					s.confirmLogout()
					continue
				case "whoami":
					s.whoami()
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Fprintf(out, "❌ Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}
				if err := runSubcommand(targetCmd, cmdArgs); err != nil {
					fmt.Fprintf(out, "❌ Error: %v\n\n", err)
				}
			}

			if err := s.scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}
			return nil
		},
	}

	return cmd
}

type interactiveSession struct {
	app     *AppContext
	out     io.Writer
	scanner *bufio.Scanner
}

func (s *interactiveSession) prompt(text string) (string, bool) {
	fmt.Fprint(s.out, text)
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

func (s *interactiveSession) login(args []string) {
	if s.app.Session.State() != model.SessionAnonymous {
		fmt.Fprintf(s.out, "❌ Already logged in as %s, log out first\n\n", s.app.Session.Identity().User)
		return
	}

	var user string
	if len(args) > 0 {
		user = args[0]
	} else {
		var ok bool
		if user, ok = s.prompt("User: "); !ok {
			return
		}
	}
	password, ok := s.prompt("Password: ")
	if !ok {
		return
	}

	identity, err := s.app.Login(user, password)
	if err != nil {
		fmt.Fprintf(s.out, "❌ Login failed: %v\n\n", err)
		return
	}
	fmt.Fprintf(s.out, "✓ Logged in as %s (%s)\n\n", identity.User, identity.Role)
}

// confirmLogout asks before ending an authenticated session. It reports
// whether the session is anonymous afterwards.
func (s *interactiveSession) confirmLogout() bool {
	session := s.app.Session
	if session.State() == model.SessionAnonymous {
		return true
	}
	if err := session.RequestExit(); err != nil {
		fmt.Fprintf(s.out, "❌ Error: %v\n\n", err)
		return false
	}

	answer, ok := s.prompt(fmt.Sprintf("Log out %s? [y/N] ", session.Identity().User))
	if ok && (strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")) {
		user := session.Identity().User
		if err := session.ConfirmExit(); err != nil {
			fmt.Fprintf(s.out, "❌ Error: %v\n\n", err)
			return false
		}
		fmt.Fprintf(s.out, "✓ %s logged out\n\n", user)
		return true
	}

	if err := session.CancelExit(); err != nil {
		fmt.Fprintf(s.out, "❌ Error: %v\n\n", err)
	}
	fmt.Fprintln(s.out, "Still logged in")
	fmt.Fprintln(s.out)
	return false
}

func (s *interactiveSession) whoami() {
	session := s.app.Session
	if session.State() == model.SessionAnonymous {
		fmt.Fprintf(s.out, "Not logged in\n\n")
		return
	}
	identity := session.Identity()
	fmt.Fprintf(s.out, "%s (%s)\n\n", identity.User, identity.Role)
}

// runSubcommand executes a command's RunE directly, bypassing Execute so the
// root PersistentPreRunE does not initialize the app again
func runSubcommand(targetCmd *cobra.Command, args []string) error {
	targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		flag.Value.Set(flag.DefValue)
	})

	if err := targetCmd.ParseFlags(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	args = targetCmd.Flags().Args()

	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, args); err != nil {
			return err
		}
	}

	if targetCmd.RunE != nil {
		return targetCmd.RunE(targetCmd, args)
	}
	if targetCmd.Run != nil {
		targetCmd.Run(targetCmd, args)
	}
	return nil
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
		fmt.Fprintf(out, "  %-30s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Fprintln(out, "\n  login [user]                   Log in (prompts for the password)")
	fmt.Fprintln(out, "  logout                         Log out after confirmation")
	fmt.Fprintln(out, "  whoami                         Show the logged-in user")
	fmt.Fprintln(out, "  help                           Show this help message")
	fmt.Fprintln(out, "  exit, quit                     Exit the interactive session")
	fmt.Fprintln(out)
}

// parseCommandLine splits a command line into arguments, respecting quoted strings
// Supports both single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune // 0 if not in quote, '"' or '\'' if in quote

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
		case unicode.IsSpace(r):
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args, nil
}
