package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/absolutely-right/internal/logger"
	"github.com/benvon/absolutely-right/internal/models"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Check that a collector is reachable",
		Long:  "Probe the collector health endpoint and print today's stored counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			return Check(cmd.Context(), client, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout")
	return cmd
}

// Check probes /healthz and /api/today on the collector at baseURL
func Check(ctx context.Context, client *http.Client, baseURL string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	base := strings.TrimRight(baseURL, "/")

	fmt.Fprintf(out, "Testing collector: %s\n", logger.SanitizeURL(base))

	if _, err := get(ctx, client, base+"/healthz"); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Health endpoint is accessible")

	body, err := get(ctx, client, base+"/api/today")
	if err != nil {
		return fmt.Errorf("today endpoint failed: %w", err)
	}
	var today models.TodayResponse
	if err := json.Unmarshal(body, &today); err != nil {
		return fmt.Errorf("failed to decode today response: %w", err)
	}
	fmt.Fprintf(out, "✓ Today (%s): absolutely=%d, right=%d, total=%d\n",
		today.Day, today.Count, today.RightCount, today.TotalMessages)
	return nil
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("returned status: %d", resp.StatusCode)
	}
	return body, nil
}
