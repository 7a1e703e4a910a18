package meticd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	Mt "github.com/meticai/meticd/types"
)

const (
	webTimeout = 10 * time.Second
)

type HTTPClient interface {
	Get(string) (*http.Response, error)
	Post(url, contentType string, body io.Reader) (*http.Response, error)
}

// Shared HTTP Client
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}

// SingleFetchWithClient handles the messy business of the HTTP connection
// and is testable with dependency injection, called by SingleFetch
func SingleFetchWithClient(url string, c HTTPClient) (int, []byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		slog.Error("Fetch Error", slog.Any("Error", err))
		return 0, nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Could not read body", slog.Any("Error", err))
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("Error", err))
			return
		}
	}()

	return resp.StatusCode, body, err
}

// SingleFetch returns the Response Code, raw byte stream body, and error
// This uses a Shared HTTP Client:
// - to reuse existing machine connections
// - to avoid stale connections that eat up OS FDs
func SingleFetch(url string) (int, []byte, error) {
	return SingleFetchWithClient(url, sharedHTTPClient)
}

// FetchJSONWithClient decodes a machine JSON endpoint into /out/
func FetchJSONWithClient(url string, out any, c HTTPClient) error {
	code, body, err := SingleFetchWithClient(url, c)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		slog.Error("Machine returned non-OK", slog.Int("Status", code), slog.String("URL", url))
		return fmt.Errorf("machine returned %d for %s", code, url)
	}
	if err := json.Unmarshal(body, out); err != nil {
		slog.Error("Could not decode machine JSON", slog.Any("Error", err))
		return fmt.Errorf("machine JSON decode error: %w", err)
	}
	return nil
}

// PostJSONWithClient sends /in/ to a machine endpoint as JSON
func PostJSONWithClient(url string, in any, c HTTPClient) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("machine JSON encode error: %w", err)
	}

	resp, err := c.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		slog.Error("Post Error", slog.Any("Error", err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		slog.Error("Machine rejected post", slog.Int("Status", resp.StatusCode), slog.String("URL", url))
		return fmt.Errorf("machine returned %d for %s", resp.StatusCode, url)
	}
	return nil
}

// TelemetryKV streams input from the machine's plaintext telemetry feed
// and populates a map for all key/values, removing whitespace and comments.
// The firmware speaks simple 'pressure=9.1' lines, one per channel.
func TelemetryKV(d, url string) (map[string]string, error) {
	_, body, err := SingleFetch(url)
	if err != nil {
		return nil, err
	}
	return ParseMetricKV(bytes.NewReader(body), d)
}

func ParseMetricKV(reader io.Reader, d string) (map[string]string, error) {
	envMap := make(map[string]string)
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// ignore whitespace and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on the delimiter /d/
		parts := strings.SplitN(line, d, 2)
		if len(parts) != 2 {
			slog.Error("WARNING: Invalid line", slog.String("line", line))
			continue
		}

		// Extract Key, Clean up Value, Add to Map
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		// Remove quotes
		value = strings.Trim(value, `"'`)
		// Take care of any trailing quotes and comments
		if pos := strings.IndexAny(value, `"'#`); pos != -1 {
			value = value[:pos]
		}
		envMap[key] = value
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Problem scanning input", slog.Any("Error", err))
		return nil, fmt.Errorf("scanning error: %w", err)
	}

	return envMap, nil
}

// ParseSampleKV translates one telemetry KV map into a Sample.
// Missing channels read as zero, a bad float is logged and skipped,
// the poll itself never fails on a single garbled line.
func ParseSampleKV(kv map[string]string, now time.Time) Mt.Sample {
	s := Mt.Sample{Timestamp: now}

	grab := func(key string, dst *float64) {
		raw, ok := kv[key]
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			slog.Error("invalid syntax in telemetry", slog.String("key", key), slog.String("value", raw))
			return
		}
		*dst = f
	}

	grab("pressure", &s.Pressure)
	grab("flow", &s.Flow)
	grab("weight", &s.Weight)
	grab("temperature", &s.Temperature)

	if st, ok := kv["state"]; ok {
		s.State = st
	}

	return s
}
