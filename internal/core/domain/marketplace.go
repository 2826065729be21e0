package domain

import "time"

// Task is a unit of work posted by a buyer.
type Task struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Detail          string    `json:"detail"`
	RequiredWorkers int       `json:"requiredWorkers"`
	PayableAmount   int       `json:"payableAmount"`
	CompletionDate  time.Time `json:"completionDate"`
	SubmissionInfo  string    `json:"submissionInfo"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	BuyerID         string    `json:"buyerId,omitempty"`
	BuyerName       string    `json:"buyerName,omitempty"`
	BuyerEmail      string    `json:"buyerEmail,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TaskDraft is the buyer-side input for a new task.
type TaskDraft struct {
	Title           string    `json:"title"           validate:"required"`
	Detail          string    `json:"detail"          validate:"required"`
	RequiredWorkers int       `json:"requiredWorkers" validate:"required,min=1"`
	PayableAmount   int       `json:"payableAmount"   validate:"required,min=1"`
	CompletionDate  time.Time `json:"completionDate"  validate:"required"`
	SubmissionInfo  string    `json:"submissionInfo"  validate:"required"`
	ImageURL        string    `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// TaskUpdate carries the editable fields of an existing task.
type TaskUpdate struct {
	Title          string `json:"title,omitempty"`
	Detail         string `json:"detail,omitempty"`
	SubmissionInfo string `json:"submissionInfo,omitempty"`
}

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is a worker's claim of completion for a task.
type Submission struct {
	ID                string           `json:"_id"`
	TaskID            string           `json:"taskId"`
	TaskTitle         string           `json:"taskTitle"`
	PayableAmount     int              `json:"payableAmount"`
	WorkerEmail       string           `json:"workerEmail"`
	WorkerName        string           `json:"workerName"`
	BuyerName         string           `json:"buyerName"`
	BuyerEmail        string           `json:"buyerEmail"`
	SubmissionDetails string           `json:"submissionDetails"`
	Status            SubmissionStatus `json:"status"`
	SubmittedAt       time.Time        `json:"submittedAt"`
}

// SubmissionPage is one page of a worker's submissions.
type SubmissionPage struct {
	Items      []Submission `json:"submissions"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	Total      int          `json:"total"`
}

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
)

// PaymentSystems lists the payout channels a worker may pick.
var PaymentSystems = []string{"stripe", "bkash", "rocket", "nagad"}

// Withdrawal is a worker's request to convert coins into money.
type Withdrawal struct {
	ID               string           `json:"_id"`
	WorkerEmail      string           `json:"workerEmail"`
	WorkerName       string           `json:"workerName"`
	WithdrawalCoin   int              `json:"withdrawalCoin"`
	WithdrawalAmount float64          `json:"withdrawalAmount"`
	PaymentSystem    string           `json:"paymentSystem"`
	AccountNumber    string           `json:"accountNumber"`
	Status           WithdrawalStatus `json:"status"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// WithdrawalRequest is the worker-side input.
type WithdrawalRequest struct {
	WithdrawalCoin int    `json:"withdrawalCoin" validate:"required,min=1"`
	PaymentSystem  string `json:"paymentSystem"  validate:"required,oneof=stripe bkash rocket nagad"`
	AccountNumber  string `json:"accountNumber"  validate:"required"`
}

// CoinPackage is a purchasable bundle of coins.
type CoinPackage struct {
	ID      int     `json:"id"`
	Coins   int     `json:"coins"`
	Price   float64 `json:"price"`
	Popular bool    `json:"popular,omitempty"`
}

// PurchaseRequest buys one coin package.
type PurchaseRequest struct {
	PackageID  int    `json:"packageId"            validate:"required"`
	CardNumber string `json:"cardNumber,omitempty" validate:"omitempty,credit_card"`
	ExpiryDate string `json:"expiryDate,omitempty"`
	CVV        string `json:"cvv,omitempty"        validate:"omitempty,numeric,min=3,max=4"`
}

// Payment is a completed coin purchase.
type Payment struct {
	ID             string    `json:"_id"`
	BuyerEmail     string    `json:"buyerEmail"`
	BuyerName      string    `json:"buyerName"`
	CoinsPurchased int       `json:"coinsPurchased"`
	AmountPaid     float64   `json:"amountPaid"`
	PaymentDate    time.Time `json:"paymentDate"`
}

// Notification is an in-app message addressed to a user.
type Notification struct {
	ID          string    `json:"_id"`
	Message     string    `json:"message"`
	ToEmail     string    `json:"toEmail"`
	ActionRoute string    `json:"actionRoute"`
	CreatedAt   time.Time `json:"createdAt"`
	Read        bool      `json:"read"`
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a user-raised moderation report reviewed by admins.
type Report struct {
	ID         string       `json:"_id"`
	ReporterID string       `json:"reporterId"`
	TargetType string       `json:"targetType"`
	TargetID   string       `json:"targetId"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// UserSummary is a user as listed in admin and leaderboard views.
type UserSummary struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoUrl"`
	Role      Role      `json:"role"`
	Coins     int       `json:"coins"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileUpdate carries the self-editable profile fields.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"     validate:"omitempty,min=2"`
	PhotoURL string `json:"photoUrl,omitempty" validate:"omitempty,url"`
}

// Stats is a role-specific dashboard summary; the backend decides the keys.
type Stats map[string]float64
