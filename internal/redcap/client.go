package redcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fitchlab/redkit/internal/diff"
)

// exportTimestampFormat is the "YYYY-MM-DD HH:MM:SS" layout the REDCap
// API expects for dateRangeBegin.
const exportTimestampFormat = "2006-01-02 15:04:05"

// Client talks to one REDCap project.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// ExportOptions narrows a record export.
type ExportOptions struct {
	// DateBegin, when set, restricts the export to records changed at or
	// after this time.
	DateBegin *time.Time

	// Forms restricts the export to the named instruments. Empty means
	// all instruments.
	Forms []string

	// SurveyFields includes survey identifier and timestamp fields.
	SurveyFields bool
}

// Export downloads records as raw CSV text.
func (c *Client) Export(ctx context.Context, opts ExportOptions) (string, error) {
	form := url.Values{
		"token":   {c.cfg.Token},
		"content": {"record"},
		"action":  {"export"},
		"format":  {"csv"},
		"type":    {"flat"},
	}
	if opts.DateBegin != nil {
		form.Set("dateRangeBegin", opts.DateBegin.Format(exportTimestampFormat))
	}
	for i, f := range opts.Forms {
		form.Set(fmt.Sprintf("forms[%d]", i), f)
	}
	if opts.SurveyFields {
		form.Set("exportSurveyFields", "true")
	}
	return c.post(ctx, form)
}

// ExportRecords downloads the full dataset, or only records changed at or
// after dateBegin when it is non-nil. This is the incremental runner's
// Fetcher capability.
func (c *Client) ExportRecords(ctx context.Context, dateBegin *time.Time) (string, error) {
	return c.Export(ctx, ExportOptions{DateBegin: dateBegin})
}

// ExportReport downloads one report as raw CSV text.
func (c *Client) ExportReport(ctx context.Context, reportID string) (string, error) {
	form := url.Values{
		"token":     {c.cfg.Token},
		"content":   {"report"},
		"report_id": {reportID},
		"format":    {"csv"},
	}
	return c.post(ctx, form)
}

// ImportResult summarizes a record import.
type ImportResult struct {
	// Count is the number of records the API accepted. -1 for background
	// imports, where the API reports nothing.
	Count int `json:"count"`
}

// ImportRecords uploads change records. With background set the API
// queues the import instead of applying it synchronously.
func (c *Client) ImportRecords(ctx context.Context, records []*diff.Record, background bool) (ImportResult, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return ImportResult{}, fmt.Errorf("marshal records: %w", err)
	}
	form := url.Values{
		"token":             {c.cfg.Token},
		"content":           {"record"},
		"action":            {"import"},
		"format":            {"json"},
		"type":              {"flat"},
		"overwriteBehavior": {"normal"},
		"data":              {string(data)},
		"returnContent":     {"count"},
	}
	if background {
		form.Set("backgroundProcess", "true")
	}

	body, err := c.post(ctx, form)
	if err != nil {
		return ImportResult{}, err
	}
	if background {
		return ImportResult{Count: -1}, nil
	}

	var result ImportResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return ImportResult{}, &Error{
			Code:    ErrCodeTransportError,
			Message: fmt.Sprintf("unexpected import response %q", truncate(body, 200)),
			Err:     err,
		}
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Code: ErrCodeTransportError, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Code: ErrCodeTransportError, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Code: ErrCodeTransportError, Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Code:    ErrCodeTransportError,
			Message: fmt.Sprintf("API error: %s", truncate(strings.TrimSpace(string(body)), 200)),
			Status:  resp.StatusCode,
		}
	}
	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// CheckRecordLimit fails with RECORD_LIMIT_EXCEEDED when a change-set is
// larger than max. A max of 0 means unlimited. Called after diff
// computation and before any import, so a too-large batch is never
// partially applied.
func CheckRecordLimit(count, max int) error {
	if max > 0 && count > max {
		return &Error{
			Code:    ErrCodeRecordLimitExceeded,
			Message: strconv.Itoa(count) + " records to import, limit is " + strconv.Itoa(max),
		}
	}
	return nil
}

// Batches splits records into import batches of at most size records.
// A size of 0 means one batch with everything.
func Batches(records []*diff.Record, size int) [][]*diff.Record {
	if size <= 0 || len(records) <= size {
		if len(records) == 0 {
			return nil
		}
		return [][]*diff.Record{records}
	}
	var out [][]*diff.Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}
