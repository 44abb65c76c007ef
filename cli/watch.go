package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescout-dev/codescout/daemon"
	"github.com/codescout-dev/codescout/scanner"
)

var (
	watchBackground bool
	watchStatus     bool
	watchStop       bool
	watchLogDir     string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the background indexing service",
	Long: `Run the indexing service: discover projects, watch their files for
changes, and re-index on the configured schedule.

By default the service runs in the foreground. Use --background to
detach it, --status to check on a detached service, and --stop to shut
it down.

Examples:
  codescout watch                  Run in foreground (Ctrl+C to stop)
  codescout watch --background     Run detached with default log directory
  codescout watch --status         Show whether a detached service is running
  codescout watch --stop           Stop the detached service`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchBackground, "background", false, "Run detached in the background")
	watchCmd.Flags().BoolVar(&watchStatus, "status", false, "Show background service status")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop the background service")
	watchCmd.Flags().StringVar(&watchLogDir, "log-dir", "", "Directory for PID and log files (default: OS state directory)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	activeFlags := 0
	for _, f := range []bool{watchBackground, watchStatus, watchStop} {
		if f {
			activeFlags++
		}
	}
	if activeFlags > 1 {
		return fmt.Errorf("flags --background, --status, and --stop are mutually exclusive")
	}

	logDir := watchLogDir
	if logDir == "" {
		var err error
		logDir, err = daemon.GetDefaultLogDir()
		if err != nil {
			return fmt.Errorf("failed to get default log directory: %w", err)
		}
	}

	if watchStatus {
		return showWatchStatus(logDir)
	}
	if watchStop {
		return stopWatchDaemon(logDir)
	}
	if watchBackground {
		return startBackgroundWatch(logDir)
	}

	// Check if already running in background (automatically cleans up stale PIDs)
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to check running status: %w", err)
	}
	if pid > 0 {
		return fmt.Errorf("service is already running in background (PID %d)\nUse 'codescout watch --stop' to stop it", pid)
	}

	return runWatchForeground(logDir)
}

func showWatchStatus(logDir string) error {
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	if pid == 0 {
		fmt.Println("Status: not running")
		fmt.Printf("Log directory: %s\n", logDir)
		return nil
	}

	fmt.Println("Status: running")
	fmt.Printf("PID: %d\n", pid)
	fmt.Printf("Log file: %s\n", daemon.LogFilePath(logDir))
	return nil
}

func stopWatchDaemon(logDir string) error {
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}
	if pid == 0 {
		fmt.Println("No background service is running")
		return nil
	}

	fmt.Printf("Stopping background service (PID %d)...\n", pid)
	if err := daemon.StopProcess(pid); err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}

	const shutdownTimeout = 30 * time.Second
	const shutdownPollInterval = 500 * time.Millisecond
	deadline := time.Now().Add(shutdownTimeout)
	lastProgress := time.Now()

	for time.Now().Before(deadline) {
		if !daemon.IsProcessRunning(pid) {
			break
		}
		if time.Since(lastProgress) >= 5*time.Second {
			fmt.Println("Waiting for graceful shutdown...")
			lastProgress = time.Now()
		}
		time.Sleep(shutdownPollInterval)
	}

	if daemon.IsProcessRunning(pid) {
		return fmt.Errorf("process did not stop within %v\nStill running? Try: kill -9 %d\nOr check logs at: %s",
			shutdownTimeout, pid, daemon.LogFilePath(logDir))
	}

	if err := daemon.RemovePIDFile(logDir); err != nil {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}

	fmt.Println("Background service stopped")
	return nil
}

func startBackgroundWatch(logDir string) error {
	// Check if already running (automatically cleans up stale PIDs)
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to check running status: %w", err)
	}
	if pid > 0 {
		return fmt.Errorf("service is already running (PID %d)", pid)
	}

	// Build args for background process (exclude --background flag)
	args := []string{"watch"}
	if watchLogDir != "" {
		args = append(args, "--log-dir", watchLogDir)
	}

	childPID, exitCh, err := daemon.SpawnBackground(logDir, args)
	if err != nil {
		return fmt.Errorf("failed to start background process: %w", err)
	}

	logFile := daemon.LogFilePath(logDir)

	// Wait for the child to become ready or fail. Polls the ready file
	// while also checking for early exit, which kill(0) cannot detect
	// once the child is a zombie.
	const startupTimeout = 30 * time.Second
	const pollInterval = 250 * time.Millisecond
	deadline := time.Now().Add(startupTimeout)

	for time.Now().Before(deadline) {
		if daemon.IsReady(logDir) {
			fmt.Printf("Background service started (PID %d)\n", childPID)
			fmt.Printf("Logs: %s\n", logFile)
			fmt.Printf("\nUse 'codescout watch --status' to check status\n")
			fmt.Printf("Use 'codescout watch --stop' to stop the service\n")
			return nil
		}

		select {
		case <-exitCh:
			return fmt.Errorf("background process failed to start (check logs at %s)", logFile)
		default:
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("timeout waiting for process to become ready after %v (check logs at %s)", startupTimeout, logFile)
}

func runWatchForeground(logDir string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	isBackgroundChild := os.Getenv(daemon.BackgroundEnv) == "1"

	if isBackgroundChild {
		if err := daemon.WritePIDFile(logDir); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() {
			if err := daemon.RemovePIDFile(logDir); err != nil {
				log.Printf("failed to remove PID file: %v", err)
			}
			if err := daemon.RemoveReadyFile(logDir); err != nil {
				log.Printf("failed to remove ready file: %v", err)
			}
		}()
	}

	svc, baseDir, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	log.Printf("codescout service starting (state: %s)", baseDir)

	// Initial discovery so the watchers and schedule cover every known
	// project from the start.
	result, err := svc.Discover(ctx, scanner.Mode(""), 0)
	if err != nil {
		log.Printf("initial discovery failed: %v", err)
	} else {
		log.Printf("discovery (%s): %d project(s), %d new", result.Mode, result.Found, result.New)
	}

	svc.StartWatchers(ctx)
	svc.StartSchedule(ctx)

	if isBackgroundChild {
		if err := daemon.WriteReadyFile(logDir); err != nil {
			log.Printf("failed to write ready file: %v", err)
		}
	} else {
		fmt.Println("Service running. Press Ctrl+C to stop.")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stopCh := daemon.StopChannel()

	select {
	case sig := <-sigChan:
		log.Printf("received %v, shutting down", sig)
	case <-stopCh:
		log.Printf("stop requested, shutting down")
	}

	svc.StopSchedule()
	svc.StopWatchers()
	return nil
}
