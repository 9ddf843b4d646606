package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// dump uploads the conversation memory as indented JSON and returns the paste URL.
func (b *Bot) dump(ctx context.Context) (string, error) {
	snapshot, err := b.memory.Snapshot()
	if err != nil {
		return "", err
	}

	lines := make(map[string][]string, len(snapshot))
	for topic, entries := range snapshot {
		for _, entry := range entries {
			lines[topic] = append(lines[topic], entry.Content)
		}
	}
	body, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal memory: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, b.pasteURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create paste request: %w", err)
	}
	request.Header.Set("Content-Type", "text/plain")

	response, err := b.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("post paste: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", fmt.Errorf("post paste: HTTP %d", response.StatusCode)
	}
	url, err := io.ReadAll(io.LimitReader(response.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("read paste response: %w", err)
	}
	return strings.TrimSpace(string(url)), nil
}
