package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientProfile описывает профиль клиента (заказчика).
type ClientProfile struct {
	UserID            uuid.UUID  `db:"user_id" json:"user_id"`
	FullName          string     `db:"full_name" json:"full_name"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	Address           *string    `db:"address" json:"address,omitempty"`
	IsProfileComplete bool       `db:"is_profile_complete" json:"is_profile_complete"`
	TotalJobsPosted   int        `db:"total_jobs_posted" json:"total_jobs_posted"`
	TotalSpent        float64    `db:"total_spent" json:"total_spent"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// FreelancerProfile описывает профиль фрилансера вместе со статусом верификации.
// Статус approved открывает доступ к откликам на работы.
type FreelancerProfile struct {
	UserID             uuid.UUID  `db:"user_id" json:"user_id"`
	FreelancerCode     *string    `db:"freelancer_code" json:"freelancer_code,omitempty"`
	FullName           string     `db:"full_name" json:"full_name"`
	DateOfBirth        *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender             *string    `db:"gender" json:"gender,omitempty"`
	Address            *string    `db:"address" json:"address,omitempty"`
	Pincode            *string    `db:"pincode" json:"pincode,omitempty"`
	VerificationStatus string     `db:"verification_status" json:"verification_status"`
	RejectionReason    *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	IsProfileComplete  bool       `db:"is_profile_complete" json:"is_profile_complete"`
	TotalJobs          int        `db:"total_jobs" json:"total_jobs"`
	CompletedJobs      int        `db:"completed_jobs" json:"completed_jobs"`
	TotalEarnings      float64    `db:"total_earnings" json:"total_earnings"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// IsApproved сообщает, прошёл ли фрилансер верификацию.
func (p *FreelancerProfile) IsApproved() bool {
	return p.VerificationStatus == VerificationStatusApproved
}

// CanResubmit сообщает, может ли фрилансер повторно подать профиль на проверку.
func (p *FreelancerProfile) CanResubmit() bool {
	return p.VerificationStatus == VerificationStatusRejected
}
