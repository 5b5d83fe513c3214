package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/frikadellen/baf/internal/bot"
	"github.com/frikadellen/baf/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "baf",
		Short: "BAF - auction and bazaar flipper",
		Long: `BAF follows flip recommendations from the Coflnet feed and executes them in game,
buying auctions and placing bazaar orders through a local game bridge.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), configPath, debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Connect to the feed and the game bridge and start flipping",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), configPath, debug)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create or update the configuration interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(configPath)
		},
	})
	rootCmd.AddCommand(newStatusCmd(&configPath))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("baf %s (build %s, %s)\n", config.Version, orDash(buildID), orDash(buildTime))
		},
	})

	return rootCmd
}

func newStatusCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state and queue of a running bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				if err := config.Load(*configPath); err != nil {
					return err
				}
				addr = fmt.Sprintf("http://127.0.0.1:%d", config.Baf.Server.Port)
			}
			status, err := fetchStatus(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Println(renderStatus(status))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Status server address (defaults to the configured port on localhost)")
	return cmd
}

func fetchStatus(ctx context.Context, addr string) (bot.Status, error) {
	var status bot.Status
	resp, err := resty.New().
		SetTimeout(5 * time.Second).
		SetBaseURL(addr).
		R().
		SetContext(ctx).
		SetResult(&status).
		Get("/api/status")
	if err != nil {
		return status, fmt.Errorf("status server unreachable: %w", err)
	}
	if resp.IsError() {
		return status, errors.New("status server returned " + resp.Status())
	}
	return status, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
