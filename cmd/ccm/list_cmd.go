package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baaaaaaaka/cursor-cli-manager/internal/agent"
	"github.com/baaaaaaaka/cursor-cli-manager/internal/index"
)

// runList prints the full index as JSON, including per-item error fields
// so scripts can see degraded chats.
func runList(cmd *cobra.Command, args []string) error {
	st, err := loadApp()
	if err != nil {
		return err
	}
	ix, err := index.Build(context.Background(), st.store, st.resolver, st.titles)
	if err != nil {
		if errors.Is(err, agent.ErrStorageRootMissing) {
			return storageRootHint(st.dirs)
		}
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ix)
}

// runOpen resumes a chat by ID, bypassing the UI entirely. The process
// is replaced by cursor-agent; on success this never returns.
func runOpen(cmd *cobra.Command, args []string) error {
	chatID := args[0]
	st, err := loadApp()
	if err != nil {
		return err
	}

	wsPath := openWorkspace
	if wsPath == "" {
		ix, err := index.Build(context.Background(), st.store, st.resolver, st.titles)
		if err != nil {
			if errors.Is(err, agent.ErrStorageRootMissing) {
				return storageRootHint(st.dirs)
			}
			return err
		}
		ws, _, ok := ix.FindSession(chatID)
		if !ok {
			return fmt.Errorf("chat %s not found; run `ccm list` to see known chats", chatID)
		}
		wsPath = ws.Path
		if wsPath == "" {
			fmt.Fprintf(os.Stderr, "warning: workspace path for %s is unknown; resuming from the current directory\n", ws.Hash)
		}
	}

	agentPath, err := agent.ResolveAgentPath(st.cfg.AgentPath)
	if err != nil {
		return err
	}
	info := agent.BuildResumeCommand(agentPath, wsPath, chatID, st.cfg.AgentFlags)
	return agent.Exec(info)
}

// runNew starts a fresh chat, replacing the process.
func runNew(cmd *cobra.Command, args []string) error {
	st, err := loadApp()
	if err != nil {
		return err
	}

	wsPath := newWorkspace
	if wsPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		wsPath = cwd
	}
	st.resolver.Observe(wsPath)

	agentPath, err := agent.ResolveAgentPath(st.cfg.AgentPath)
	if err != nil {
		return err
	}
	info := agent.BuildNewCommand(agentPath, wsPath, st.cfg.AgentFlags)
	return agent.Exec(info)
}
