package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/fleet-client/internal/constants"
	"github.com/fivetwenty-io/fleet-client/internal/http"
	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// LogsClient implements fleet.LogsClient.
type LogsClient struct {
	client *Client
}

// NewLogsClient creates a new logs client.
func NewLogsClient(client *Client) *LogsClient {
	return &LogsClient{client: client}
}

// History implements fleet.LogsClient.History.
func (l *LogsClient) History(ctx context.Context, uuid string, count int) ([]fleet.LogMessage, error) {
	query := url.Values{}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}

	resp, err := l.client.http.Get(ctx, "/device/v2/"+uuid+"/logs", query)
	if err != nil {
		return nil, fmt.Errorf("fetching log history: %w", err)
	}

	var entries []fleet.LogMessage
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("parsing log history: %w", err)
	}

	return entries, nil
}

// Subscribe implements fleet.LogsClient.Subscribe. The reader goroutine owns
// the stream and both channels; canceling ctx ends it. Entries arrive as
// NDJSON, one log message per line.
func (l *LogsClient) Subscribe(ctx context.Context, uuid string, count int) (<-chan fleet.LogMessage, <-chan error, error) {
	query := url.Values{}
	query.Set("stream", "1")

	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}

	stream, err := l.client.http.Stream(ctx, &http.Request{
		Method: "GET",
		Path:   "/device/v2/" + uuid + "/logs",
		Query:  query,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening log stream: %w", err)
	}

	messages := make(chan fleet.LogMessage, constants.LogBufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(messages)
		defer stream.Close()

		scanner := bufio.NewScanner(stream)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var entry fleet.LogMessage
			if err := json.Unmarshal(line, &entry); err != nil {
				errs <- fmt.Errorf("parsing log entry: %w", err)

				return
			}

			select {
			case messages <- entry:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			errs <- fmt.Errorf("reading log stream: %w", err)
		}
	}()

	return messages, errs, nil
}
