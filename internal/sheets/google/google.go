package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"caisse/internal/core"
	"caisse/internal/log"
	ports "caisse/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile when both are set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger

	headerMu sync.Mutex
	headerDone bool
}

// Ensure interface conformance
var _ ports.LedgerWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if sheetName == "" {
		sheetName = "Ledger"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheet:         strings.TrimSpace(sheetName),
		logger:        logger,
	}
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// AppendTransaction appends the transaction below the last row of the ledger
// sheet and returns the A1 range that was written.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if tx.ID == 0 {
		return "", errors.New("transaction has no id")
	}
	if err := c.ensureHeader(ctx); err != nil {
		return "", err
	}

	rng := fmt.Sprintf("%s!A:G", c.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(tx)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// ensureHeader writes the header row once per client when the sheet is empty.
func (c *Client) ensureHeader(ctx context.Context) error {
	c.headerMu.Lock()
	defer c.headerMu.Unlock()
	if c.headerDone {
		return nil
	}

	rng := fmt.Sprintf("%s!A1:G1", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheet, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		vr := &gsheet.ValueRange{Values: [][]any{ports.Header}}
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header of %s: %w", c.sheet, err)
		}
		c.logger.InfoContext(ctx, "Wrote ledger header", "sheet", c.sheet)
	}
	c.headerDone = true
	return nil
}
