/**
* This file implements `platform-cli sync` subcommand
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xrpscan/tezsync/accounts"
	"github.com/xrpscan/tezsync/config"
	"github.com/xrpscan/tezsync/connections"
	"github.com/xrpscan/tezsync/logger"
	"github.com/xrpscan/tezsync/models"
	"github.com/xrpscan/tezsync/signals"
)

const SyncCommandName = "sync"

type SyncCommand struct {
	fs           *flag.FlagSet
	fConfigFile  string
	fAddress     string
	fServer      string
	fStateFile   string
	fIncremental bool
	fTimeout     time.Duration
}

func NewSyncCommand() *SyncCommand {
	cmd := &SyncCommand{
		fs: flag.NewFlagSet(SyncCommandName, flag.ExitOnError),
	}

	cmd.fs.StringVar(&cmd.fAddress, "address", "", "Tezos address to synchronize")
	cmd.fs.StringVar(&cmd.fConfigFile, "config", ".env", "Environment config file")
	cmd.fs.StringVar(&cmd.fServer, "server", "", "Indexer API base url (defaults to INDEXER_API_URL)")
	cmd.fs.StringVar(&cmd.fStateFile, "state", "", "JSON file holding the previous account state, updated after the sync")
	cmd.fs.BoolVar(&cmd.fIncremental, "incremental", false, "Only fetch operations newer than the previous state")
	cmd.fs.DurationVar(&cmd.fTimeout, "timeout", 5*time.Minute, "Maximum duration of the sync")
	return cmd
}

func (cmd *SyncCommand) Init(args []string) error {
	return cmd.fs.Parse(args)
}

func (cmd *SyncCommand) Validate() error {
	if cmd.fAddress == "" {
		return errors.New("--address is required")
	}
	if cmd.fIncremental && cmd.fStateFile == "" {
		return errors.New("--incremental requires --state")
	}
	return nil
}

func (cmd *SyncCommand) Name() string {
	return cmd.fs.Name()
}

func (cmd *SyncCommand) loadState() (*models.Account, error) {
	if cmd.fStateFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(cmd.fStateFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var account models.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if account.Address != cmd.fAddress {
		return nil, fmt.Errorf("state file holds %s, not %s", account.Address, cmd.fAddress)
	}
	return &account, nil
}

func (cmd *SyncCommand) saveState(account *models.Account) error {
	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cmd.fStateFile, data, 0o644)
}

func (cmd *SyncCommand) Run() error {
	ctx := signals.HandleAll()

	config.EnvLoad(cmd.fConfigFile)
	logger.New()

	server := cmd.fServer
	if server == "" {
		server = config.EnvIndexerURL()
	}
	client := connections.NewIndexerClientWithURL(server, config.EnvIndexerPageLimit(), config.EnvIndexerTimeout())
	builder := accounts.NewBuilder(client, accounts.WithIncremental(cmd.fIncremental))

	previous, err := cmd.loadState()
	if err != nil {
		return err
	}

	log.Printf("[SYNC] Synchronizing %s using %s", cmd.fAddress, server)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, cmd.fTimeout)
	defer cancel()

	shape, err := builder.GetAccountShape(ctx, accounts.SyncInfo{
		Address:        cmd.fAddress,
		InitialAccount: previous,
	})
	if err != nil {
		return fmt.Errorf("sync of %s failed: %w", cmd.fAddress, err)
	}
	log.Printf("[SYNC] Done in %s: %d operations, block height %d", time.Since(start), shape.OperationsCount, shape.BlockHeight)

	if cmd.fStateFile != "" {
		if previous == nil {
			previous = models.NewAccount(cmd.fAddress)
		}
		if err := cmd.saveState(previous.ApplyShape(shape)); err != nil {
			return fmt.Errorf("failed to write state file: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(shape)
}
