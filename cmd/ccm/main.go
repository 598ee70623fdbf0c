// ccm browses and resumes cursor-agent chat sessions.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/config"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/tui"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/tuilog"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/version"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/workspace"
)

// Global flags
var (
	logPath       string
	openWorkspace string
	newWorkspace  string
)

var rootCmd = &cobra.Command{
	Use:   "ccm",
	Short: "Browse and resume cursor-agent chat sessions",
	Long: `ccm finds every cursor-agent chat on this machine, maps the hashed
storage directories back to workspace paths, and resumes chats in the
right directory.

Running without a subcommand launches the interactive browser.

Examples:
  ccm                       # Launch the interactive browser
  ccm list                  # Print every workspace and chat as JSON
  ccm open 0199aa0b-...     # Resume a chat by ID, skipping the UI
  ccm new                   # Start a fresh chat in the current directory
  ccm doctor                # Check storage, agent binary, and mappings`,
	SilenceUsage: true,
	RunE:         runTUI,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive browser (default)",
	RunE:  runTUI,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all workspaces and chats",
	RunE:  runList,
}

var openCmd = &cobra.Command{
	Use:   "open <chat-id>",
	Short: "Resume a chat by ID without the UI",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a fresh chat",
	RunE:  runNew,
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment and report problems",
	RunE:  runDoctor,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("ccm"))
	},
}

// appState carries the wired dependencies shared by all commands.
type appState struct {
	dirs     agent.Dirs
	cfg      config.Config
	store    *agent.Store
	resolver *workspace.Resolver
	titles   *agent.TitleCache
}

// loadApp wires the shared state and performs the self-healing cwd
// observation every command benefits from.
func loadApp() (*appState, error) {
	dirs, err := agent.DefaultDirs()
	if err != nil {
		return nil, fmt.Errorf("locate cursor-agent config: %w", err)
	}
	cfg, err := config.Load(dirs.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring unreadable config: %v\n", err)
		cfg = config.Default()
	}

	m := workspace.LoadMap(dirs.WorkspaceMapPath())
	resolver := workspace.NewResolver(m, workspace.DefaultUserDirs())
	// Non-TUI commands warn on stderr; runTUI redirects this to the file
	// logger before the terminal is taken over.
	resolver.Logf = stderrWarnf
	resolver.ObserveCwd()

	return &appState{
		dirs:     dirs,
		cfg:      cfg,
		store:    agent.NewStore(dirs),
		resolver: resolver,
		titles:   agent.LoadTitleCache(dirs.TitleCachePath()),
	}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	if logPath != "" {
		if err := tuilog.Init(logPath); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer tuilog.Log.Close()
	}

	st, err := loadApp()
	if err != nil {
		return err
	}
	st.resolver.Logf = tuilog.Log.Warnf
	app := tui.NewApp(st.dirs, st.store, st.resolver, st.titles, st.cfg)
	if err := tui.Run(app); err != nil {
		if errors.Is(err, agent.ErrStorageRootMissing) {
			return storageRootHint(st.dirs)
		}
		return err
	}
	return nil
}

var warnWriter io.Writer = os.Stderr

func stderrWarnf(format string, args ...any) {
	fmt.Fprintf(warnWriter, "warning: "+format+"\n", args...)
}

// storageRootHint turns the missing-root error into something actionable.
func storageRootHint(dirs agent.Dirs) error {
	return fmt.Errorf(`no cursor-agent chats found at %s

Run cursor-agent at least once to create the chat store, or point
$%s at the right config directory`, dirs.ChatsDir(), agent.EnvConfigDir)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write debug log to file")
	tuiCmd.Flags().StringVar(&logPath, "log", "", "write debug log to file")

	openCmd.Flags().StringVarP(&openWorkspace, "workspace", "w", "", "workspace path override")
	newCmd.Flags().StringVarP(&newWorkspace, "workspace", "w", "", "workspace to start the chat in (default: cwd)")

	rootCmd.AddCommand(tuiCmd, listCmd, openCmd, newCmd, doctorCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
