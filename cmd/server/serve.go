package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/ahnlich-go/internal/config"
	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/logging"
	"github.com/dreamware/ahnlich-go/internal/replication"
	"github.com/dreamware/ahnlich-go/internal/rpc"
)

var (
	serveListenAddr string
	serveAbortOnLoadFailure bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vector database server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "override the configured listen address")
	serveCmd.Flags().BoolVar(&serveAbortOnLoadFailure, "abort-on-snapshot-load-failure", false, "abort startup if the snapshot file exists but fails to load, instead of starting empty")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Named("server")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveListenAddr != "" {
		cfg.ListenAddr = serveListenAddr
	}

	handler := engine.NewHandler()
	loadInitialSnapshot(log, handler, cfg.Snapshot.Path, serveAbortOnLoadFailure)

	server := rpc.NewServer(handler, cfg.ListenAddr, "0.1.0", 0)
	_ = server // the transport that would serve Server's methods over the
	// network is a named external collaborator (see internal/rpc's
	// package doc); this binary wires the engine and persistence loop it
	// would sit behind.

	if cfg.Replication.Enabled {
		log.Infow("replication configured", "data_dir", cfg.Replication.DataDir)
		logStore, err := replication.NewBoltLogStore(cfg.Replication.DataDir + "/raft-log.bolt")
		if err != nil {
			return err
		}
		_ = replication.NewFSM(handler)
		_ = logStore
		// Bootstrapping raft.Raft against a real multi-node transport is
		// out of scope here (see internal/replication's package doc); a
		// deployment wires FSM/LogStore into its own raft.Raft instance.
	}

	stopSnapshots := startSnapshotLoop(log, handler, cfg.Snapshot.Path, cfg.Snapshot.Interval)
	defer stopSnapshots()

	log.Infow("serving", "addr", cfg.ListenAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Infow("shutting down")
	flushSnapshot(log, handler, cfg.Snapshot.Path)
	return nil
}

func loadInitialSnapshot(log *zap.SugaredLogger, handler *engine.Handler, path string, abortOnFailure bool) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	snap, err := readSnapshotFile(path)
	if err != nil {
		log.Errorw("snapshot load failed", "path", path, "err", err)
		if abortOnFailure {
			log.Fatalw("aborting startup on snapshot load failure", "path", path)
		}
		return
	}
	if err := handler.Restore(snap); err != nil {
		log.Errorw("snapshot restore failed", "path", path, "err", err)
		if abortOnFailure {
			log.Fatalw("aborting startup on snapshot restore failure", "path", path)
		}
	}
}

// startSnapshotLoop writes a fresh snapshot every interval, but only when
// the dirty flag has been set since the last write (spec §6: "written
// periodically when dirty is set"). Returns a stop function.
func startSnapshotLoop(log *zap.SugaredLogger, handler *engine.Handler, path string, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if handler.TestAndClearDirty() {
					flushSnapshot(log, handler, path)
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

func flushSnapshot(log *zap.SugaredLogger, handler *engine.Handler, path string) {
	if err := writeSnapshotFile(path, handler.Export()); err != nil {
		log.Errorw("snapshot write failed", "path", path, "err", err)
	}
}
