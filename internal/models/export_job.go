package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportFormat enumerates supported payroll export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is the persisted metadata of one asynchronous payroll export.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	Params       ExportJobParams `db:"params" json:"params"`
	Status       ExportStatus    `db:"status" json:"status"`
	FilePath     *string         `db:"file_path" json:"file_path,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ExportJobParams stores request-scoped options persisted as JSONB.
type ExportJobParams struct {
	Period    string       `json:"period"`
	TeacherID *string      `json:"teacherId,omitempty"`
	Format    ExportFormat `json:"format"`
}

// Value marshals params to JSON for persistence.
func (p ExportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ExportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportJobParams", value)
	}
	if len(data) == 0 {
		*p = ExportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export job params: %w", err)
	}
	return nil
}
