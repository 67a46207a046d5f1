package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreamware/ahnlich-go/internal/engine"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Operate on a persisted snapshot file",
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <path>",
	Short: "Load a snapshot file and report the store catalog it contains",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshotFile(args[0])
		if err != nil {
			return err
		}
		handler := engine.NewHandler()
		if err := handler.Restore(snap); err != nil {
			return fmt.Errorf("apply snapshot: %w", err)
		}
		dims := make(map[string]int, len(snap.Stores))
		for _, ss := range snap.Stores {
			dims[ss.Name] = ss.Dimension
		}
		for _, info := range handler.ListStores() {
			fmt.Printf("%s\tdim=%d\tlen=%d\n", info.Name, dims[info.Name], info.Len)
		}
		return nil
	},
}

var snapshotVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Decode a snapshot file and confirm it round-trips cleanly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshotFile(args[0])
		if err != nil {
			return err
		}
		handler := engine.NewHandler()
		if err := handler.Restore(snap); err != nil {
			return fmt.Errorf("apply snapshot: %w", err)
		}
		reExported := handler.Export()
		if len(reExported.Stores) != len(snap.Stores) {
			return fmt.Errorf("round-trip mismatch: %d stores in, %d stores out", len(snap.Stores), len(reExported.Stores))
		}
		fmt.Printf("ok: %d stores verified\n", len(reExported.Stores))
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotRestoreCmd, snapshotVerifyCmd)
}
