package dto

// CreateExportRequest queues an async payroll export job.
type CreateExportRequest struct {
	Period    string  `json:"period" validate:"required"`
	TeacherID *string `json:"teacher_id,omitempty" validate:"omitempty,uuid4"`
	Format    string  `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse reports job progress and, once finished, a signed
// download URL.
type ExportJobResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Format      string  `json:"format"`
	DownloadURL *string `json:"download_url,omitempty"`
	Error       *string `json:"error,omitempty"`
}
