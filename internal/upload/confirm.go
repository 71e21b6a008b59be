package upload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirm reports how many rows are pending and asks before uploading.
// Only "y" or "yes" proceed; end of input declines.
func Confirm(in io.Reader, out io.Writer, n int) (bool, error) {
	if _, err := fmt.Fprintf(out, "Found %d days with data to upload.\nContinue with upload? (y/N): ", n); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
