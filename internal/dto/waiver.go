package dto

// CreateWaiverRequest registers an admin deduction waiver.
type CreateWaiverRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid4"`
	Kind      string `json:"kind" validate:"required,oneof=LATENESS ABSENCE"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required,min=3,max=500"`
}
