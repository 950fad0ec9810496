package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

func gatewayFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "gateway",
		Usage: "Gateway base URL",
		Value: "http://127.0.0.1:18430",
	}
}

// getJSON fetches path from the gateway and decodes the JSON body into v.
func getJSON(ctx context.Context, base, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
			return fmt.Errorf("%s: %s", body.Error, body.Message)
		}
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
