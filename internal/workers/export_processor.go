// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{
	"Record ID", "Created At", "Store", "Item", "Location",
	"Type", "Reason", "Qty Before", "Qty After", "Qty Change",
	"Unit Cost", "Cost Impact", "User", "Role", "Device",
	"Session", "Batch", "Reference", "Requires Approval", "Approved By",
	"Approved At", "Reversed", "Reverses", "Notes",
}

// ExportProcessor writes ledger records to an xlsx workbook in object storage
type ExportProcessor struct {
	gateway ports.LedgerGateway
	storage ports.ObjectStorage
	prefix  string
	logger  *slog.Logger
}

// NewExportProcessor creates a new export processor. Workbooks are stored
// under prefix/<store>/.
func NewExportProcessor(gateway ports.LedgerGateway, storage ports.ObjectStorage, prefix string, logger *slog.Logger) *ExportProcessor {
	if prefix == "" {
		prefix = "exports"
	}
	return &ExportProcessor{
		gateway: gateway,
		storage: storage,
		prefix:  prefix,
		logger:  logger.With(slog.String("processor", "export")),
	}
}

// ExportLedger handles ledger:export
func (p *ExportProcessor) ExportLedger(ctx context.Context, t *asynq.Task) error {
	var payload ports.ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.StoreID == "" {
		return fmt.Errorf("export task has no store: %w", asynq.SkipRetry)
	}

	records, err := p.gateway.ListRecords(ctx, ports.RecordQuery{
		StoreID:   payload.StoreID,
		SessionID: payload.SessionID,
		BatchID:   payload.BatchID,
		Since:     payload.Since,
		Until:     payload.Until,
	})
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	data, err := BuildWorkbook(records)
	if err != nil {
		return err
	}

	key := p.exportKey(ctx, payload.StoreID)
	location, err := p.storage.Upload(ctx, key, bytes.NewReader(data), xlsxContentType)
	if err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	if w := t.ResultWriter(); w != nil {
		if _, err := w.Write([]byte(location)); err != nil {
			p.logger.WarnContext(ctx, "failed to write task result", slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "ledger export completed",
		slog.String("store_id", payload.StoreID),
		slog.String("requested_by", payload.RequestedBy),
		slog.String("key", key),
		slog.Int("records", len(records)))

	return nil
}

func (p *ExportProcessor) exportKey(ctx context.Context, storeID string) string {
	id, ok := asynq.GetTaskID(ctx)
	if !ok {
		id = uuid.NewString()
	}
	return fmt.Sprintf("%s/%s/%s_%s.xlsx", p.prefix, storeID, time.Now().UTC().Format("20060102_150405"), id)
}

// BuildWorkbook renders records as a single-sheet workbook, one row per
// record in the order given
func BuildWorkbook(records []*domain.AdjustmentRecord) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Adjustments")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		cell := header.AddCell()
		cell.Value = h
		cell.GetStyle().Font.Bold = true
	}

	for _, r := range records {
		row := sheet.AddRow()
		for _, v := range exportRow(r) {
			cell := row.AddCell()
			switch val := v.(type) {
			case int:
				cell.SetInt(val)
			default:
				cell.Value = fmt.Sprint(val)
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRow(r *domain.AdjustmentRecord) []interface{} {
	return []interface{}{
		r.ID.String(),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.StoreID,
		r.ItemID,
		r.LocationID,
		string(r.Type),
		string(r.Reason),
		r.QuantityBefore,
		r.QuantityAfter,
		r.QuantityChange,
		decimalString(r.UnitCost),
		decimalString(r.TotalCostImpact),
		r.UserName,
		string(r.UserRole),
		r.DeviceID,
		uuidString(r.SessionID),
		uuidString(r.BatchID),
		r.Reference,
		strconv.FormatBool(r.RequiresApproval),
		r.ApprovedBy,
		timeString(r.ApprovedAt),
		strconv.FormatBool(r.IsReversed),
		uuidString(r.ReversesID),
		r.Notes,
	}
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func timeString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
