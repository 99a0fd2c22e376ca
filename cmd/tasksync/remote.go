package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fentz26/tasksync/internal/config"
	"github.com/fentz26/tasksync/internal/network"
	"github.com/fentz26/tasksync/internal/remote"
	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Run a shared remote store",
}

var remoteServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a task collection over HTTP",
	Long: `Serves GET and PUT /api/tasks for clients configured with remote.kind: http.
The collection is kept in the YAML file at remote.path.`,
	RunE: runRemoteServe,
}

var remoteStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the remote server at remote.url",
	RunE:  runRemoteStatus,
}

var (
	listenAddr string
	storePath  string
	detach     bool
)

func init() {
	remoteCmd.AddCommand(remoteServeCmd, remoteStatusCmd)

	remoteServeCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides server.listen)")
	remoteServeCmd.Flags().StringVar(&storePath, "path", "", "YAML file holding the collection (overrides remote.path)")
	remoteServeCmd.Flags().BoolVar(&detach, "detach", false, "Start in the background and return once healthy")
}

func runRemoteStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	health, err := CheckHealth(cfg.Remote.URL)
	if health != nil {
		fmt.Printf("Remote: %s\n", cfg.Remote.URL)
		fmt.Printf("OK:     %v\n", health.OK)
		fmt.Printf("Tasks:  %d\n", health.Tasks)
		fmt.Printf("Time:   %s\n", health.Time)
	}
	return err
}

// startDetached re-executes `remote serve` in its own session, logging to
// a file next to the config, and waits until it answers.
func startDetached(listen, path string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	logPath := filepath.Join(config.Dir(), "remote.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	args := []string{"remote", "serve", "--listen", listen, "--path", path}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := exec.Command(exe, args...)
	configureDetachedProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return err
	}

	url := "http://" + listen
	if err := waitHealthy(url, 5*time.Second); err != nil {
		return err
	}
	fmt.Printf("Remote serving on %s (pid %d, log %s)\n", url, cmd.Process.Pid, logPath)
	return nil
}

func runRemoteServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr == "" {
		listenAddr = cfg.Server.Listen
	}
	if storePath == "" {
		storePath = cfg.Remote.Path
	}

	if detach {
		return startDetached(listenAddr, storePath)
	}

	backend := network.NewFileDataSource(storePath)
	server := remote.NewServer(backend, listenAddr)
	log.Printf("Storing remote tasks in %s", backend.Path())

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
