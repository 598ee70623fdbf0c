package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/workspace"
)

// runDoctor reports the health of everything ccm depends on. It always
// walks every check; a failed check is a report line, not an abort.
func runDoctor(cmd *cobra.Command, args []string) error {
	st, err := loadApp()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	ok := func(label, detail string) { fmt.Fprintf(w, "ok\t%s\t%s\n", label, detail) }
	bad := func(label, detail string) { fmt.Fprintf(w, "MISSING\t%s\t%s\n", label, detail) }

	healthy := true

	chats := st.dirs.ChatsDir()
	if recs, err := st.store.ListWorkspaces(context.Background()); err == nil {
		ok("chat store", fmt.Sprintf("%s (%d workspaces)", chats, len(recs)))
	} else if errors.Is(err, agent.ErrStorageRootMissing) {
		bad("chat store", chats+" — run cursor-agent once to create it")
		healthy = false
	} else {
		bad("chat store", err.Error())
		healthy = false
	}

	if path, err := agent.ResolveAgentPath(st.cfg.AgentPath); err == nil {
		ok("cursor-agent", path)
	} else {
		bad("cursor-agent", err.Error())
		healthy = false
	}

	mapPath := st.dirs.WorkspaceMapPath()
	m := workspace.LoadMap(mapPath)
	if _, err := os.Stat(mapPath); err == nil {
		ok("workspace map", fmt.Sprintf("%s (%d entries)", mapPath, m.Len()))
	} else {
		// Not an error: the map self-heals as ccm runs in workspaces.
		ok("workspace map", mapPath+" (not created yet)")
	}

	stateDB := workspace.DefaultUserDirs().GlobalStateDB()
	if _, err := os.Stat(stateDB); err == nil {
		ok("Cursor IDE state", stateDB)
	} else {
		ok("Cursor IDE state", stateDB+" (absent; hash inference disabled)")
	}

	if !healthy {
		w.Flush()
		return fmt.Errorf("problems found")
	}
	return nil
}
