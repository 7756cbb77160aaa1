package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// Notification is the persisted record of one push sent to one recipient.
type Notification struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"user_id"`
	IssueID        primitive.ObjectID `json:"issueId" bson:"issue_id"`
	Title          string             `json:"title" bson:"title"`
	Body           string             `json:"body" bson:"body"`
	Read           bool               `json:"read" bson:"read"`
	ReadAt         *time.Time         `json:"readAt,omitempty" bson:"read_at,omitempty"`
	DeliveryStatus DeliveryStatus     `json:"deliveryStatus" bson:"delivery_status"`
	Attempts       int                `json:"attempts" bson:"attempts"`
	LastError      string             `json:"lastError,omitempty" bson:"last_error,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
}

type NotificationView struct {
	ID        string `json:"id"`
	IssueID   string `json:"issueId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"createdAt"`
}

func (n *Notification) View() *NotificationView {
	return &NotificationView{
		ID:        n.ID.Hex(),
		IssueID:   n.IssueID.Hex(),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}
}
