package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
	"github.com/eliteGoblin/focusd/eb_agent/internal/infra"
)

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	paths := infra.DetectPaths()
	pm := infra.NewProcessManager()

	fmt.Fprintln(out, "\n=== ebagent Status ===")

	pids, err := pm.FindByExactName(infra.ProcessName)
	if err != nil {
		return err
	}
	var others []int
	for _, pid := range pids {
		if pid != pm.GetCurrentPID() {
			others = append(others, pid)
		}
	}
	if len(others) == 0 {
		fmt.Fprintln(out, "Status: NOT RUNNING")
	} else {
		fmt.Fprintf(out, "Status: RUNNING (pids %v)\n", others)
	}

	if reg, err := openExistingRegistry(paths); err != nil {
		fmt.Fprintf(out, "Registry: unavailable (%v)\n", err)
	} else {
		defer reg.Close()
		if gen, err := reg.LatestGeneration(); err == nil && gen != nil {
			fmt.Fprintf(out, "Daemon: pid %d, version %s, started %s, last heartbeat %s\n",
				gen.PID, gen.AppVersion, humanize.Time(gen.StartedAt), humanize.Time(gen.LastHeartbeat))
		}
		if runs, err := reg.RecentBackups(1); err == nil && len(runs) > 0 {
			fmt.Fprintf(out, "Last backup: %s\n", describeRun(runs[0]))
		} else {
			fmt.Fprintln(out, "Last backup: never")
		}
	}

	cfg, err := infra.NewTOMLConfigStore(paths.ConfigFile).Load()
	switch {
	case err == nil:
		fmt.Fprintf(out, "\nDevice: %s\n", cfg.DeviceName)
		fmt.Fprintln(out, "Folders:")
		for _, f := range cfg.FolderPaths {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	case errors.Is(err, domain.ErrConfigNotFound):
		fmt.Fprintln(out, "\nConfiguration: none (run 'ebagent' from a terminal)")
	default:
		fmt.Fprintf(out, "\nConfiguration: CORRUPTED (%v)\n", err)
	}

	autostart := infra.NewAutostartRegistrar(paths.HomeDir, nil)
	if autostart.IsRegistered() {
		fmt.Fprintf(out, "Auto-start: enabled (%s)\n", autostart.Path())
	} else {
		fmt.Fprintln(out, "Auto-start: disabled")
	}

	fmt.Fprintln(out, "======================")
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	reg, err := openExistingRegistry(infra.DetectPaths())
	if err != nil {
		return err
	}
	defer reg.Close()

	runs, err := reg.RecentBackups(historyLimit)
	if err != nil {
		return fmt.Errorf("read backup history: %w", err)
	}
	printHistory(cmd.OutOrStdout(), runs)
	return nil
}

func printHistory(out io.Writer, runs []domain.BackupRun) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No backup runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s\n", r.ID, describeRun(r))
		if r.Error != "" {
			fmt.Fprintf(out, "    errors: %s\n", r.Error)
		}
	}
}

func describeRun(r domain.BackupRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", r.StartedAt.Format(time.DateTime), strings.ToUpper(string(r.Status)))
	if r.Device != "" {
		fmt.Fprintf(&b, " to %s", r.Device)
	}
	fmt.Fprintf(&b, ", %d files, %s", r.FilesCopied, humanize.Bytes(uint64(r.BytesCopied)))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, " in %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	return b.String()
}

// openExistingRegistry opens the registry without creating a key or database.
func openExistingRegistry(paths *infra.AgentPaths) (*infra.EncryptedRegistry, error) {
	if _, err := os.Stat(paths.RegistryDB); err != nil {
		return nil, fmt.Errorf("no registry at %s", paths.RegistryDB)
	}
	keys := infra.NewFileKeyProvider(paths.KeyFile)
	if !keys.KeyExists() {
		return nil, fmt.Errorf("no registry key at %s", paths.KeyFile)
	}
	return infra.OpenRegistry(paths.RegistryDB, keys)
}

func runVersion(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if jsonOutput {
		fmt.Fprintf(out, `{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Fprintf(out, "ebagent %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
