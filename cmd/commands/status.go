package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/vinavi-labs/vinavi/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show Vinavi gateway status",
		Flags:  []cli.Flag{gatewayFlag()},
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	status, hb, err := heartbeat.Check(heartbeat.DefaultPath(), 2*time.Minute)
	if err != nil {
		return fmt.Errorf("check heartbeat: %w", err)
	}

	switch status {
	case heartbeat.StatusAlive:
		fmt.Printf("Gateway: ALIVE (PID %d on %s, uptime %s, %d sessions)\n", hb.PID, hb.Addr, hb.Uptime(), hb.Sessions)
	case heartbeat.StatusStale:
		fmt.Printf("Gateway: STALE (PID %d, last heartbeat %s ago)\n",
			hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
	case heartbeat.StatusDead:
		fmt.Println("Gateway: NOT RUNNING")
	}

	base := cmd.String("gateway")
	if !cmd.IsSet("gateway") && hb != nil && hb.Addr != "" {
		base = "http://" + hb.Addr
	}
	var health struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := getJSON(ctx, base, "/api/health", &health); err != nil {
		if status != heartbeat.StatusDead {
			fmt.Printf("API: unreachable at %s (%v)\n", base, err)
		}
		return nil
	}
	fmt.Printf("API: %s at %s (%d live clients)\n", health.Status, base, health.Clients)
	return nil
}
