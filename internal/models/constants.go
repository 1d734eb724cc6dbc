package models

// Статусы работ
const (
	JobStatusOpen              = "open"
	JobStatusAssigned          = "assigned"
	JobStatusWorkDone          = "work_done"
	JobStatusWaitingForPayment = "waiting_for_payment"
	JobStatusPaid              = "paid"
	JobStatusCompleted         = "completed"
	JobStatusCancelled         = "cancelled"
)

// ActiveJobStatuses — статусы, в которых работа считается активной для фрилансера.
// Фрилансер может держать не более одной работы в этих статусах одновременно.
var ActiveJobStatuses = []string{JobStatusAssigned, JobStatusWorkDone, JobStatusWaitingForPayment}

// TerminalJobStatuses — статусы, из которых работа больше не меняется.
var TerminalJobStatuses = map[string]struct{}{
	JobStatusCompleted: {},
	JobStatusCancelled: {},
}

// Статусы откликов
const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
)

// Типы откликов
const (
	OfferTypeDirectApply = "direct_apply"
	OfferTypePickup      = "pickup"
	OfferTypeNegotiate   = "negotiate"
)

// ValidOfferTypes список валидных типов откликов
var ValidOfferTypes = map[string]struct{}{
	OfferTypeDirectApply: {},
	OfferTypePickup:      {},
	OfferTypeNegotiate:   {},
}

// Типы транзакций
const (
	TransactionTypePayment           = "payment"
	TransactionTypeWithdrawal        = "withdrawal"
	TransactionTypeCommissionPayment = "commission_payment"
	TransactionTypeRefund            = "refund"
)

// Статусы транзакций
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Способы оплаты
const (
	PaymentMethodUPI          = "upi"
	PaymentMethodCash         = "cash"
	PaymentMethodWallet       = "wallet"
	PaymentMethodBankTransfer = "bank_transfer"
)

// ValidPaymentMethods список валидных способов оплаты
var ValidPaymentMethods = map[string]struct{}{
	PaymentMethodUPI:          {},
	PaymentMethodCash:         {},
	PaymentMethodWallet:       {},
	PaymentMethodBankTransfer: {},
}

// Статусы оплаты работы
const (
	JobPaymentStatusInitiated = "initiated"
	JobPaymentStatusCompleted = "completed"
	JobPaymentStatusFailed    = "failed"
)

// Статусы верификации профиля фрилансера
const (
	VerificationStatusPending     = "pending"
	VerificationStatusUnderReview = "under_review"
	VerificationStatusApproved    = "approved"
	VerificationStatusRejected    = "rejected"
	VerificationStatusResubmitted = "resubmitted"
)

// Типы записей комиссионной книги
const (
	CommissionTypeDue    = "commission_due"
	CommissionTypePaid   = "commission_paid"
	CommissionTypeWaived = "commission_waived"
)

// Статусы записей комиссионной книги
const (
	CommissionStatusPending = "pending"
	CommissionStatusPaid    = "paid"
	CommissionStatusOverdue = "overdue"
	CommissionStatusWaived  = "waived"
)

// Предпочтения по полу исполнителя
const (
	GenderPreferenceMale   = "male"
	GenderPreferenceFemale = "female"
	GenderPreferenceAny    = "any"
)

// ValidGenderPreferences список валидных предпочтений
var ValidGenderPreferences = map[string]struct{}{
	GenderPreferenceMale:   {},
	GenderPreferenceFemale: {},
	GenderPreferenceAny:    {},
}

// Роли пользователей
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)
