package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueStatus string
type Severity string

const (
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"

	SeverityGreen  Severity = "green"
	SeverityOrange Severity = "orange"
	SeverityRed    Severity = "red"
)

// SeverityFromUrgency maps the classifier's 0/1/2 urgency score. Any other
// value is reported as not ok.
func SeverityFromUrgency(urgency int) (Severity, bool) {
	switch urgency {
	case 0:
		return SeverityGreen, true
	case 1:
		return SeverityOrange, true
	case 2:
		return SeverityRed, true
	default:
		return "", false
	}
}

type Responder struct {
	UserID     primitive.ObjectID `json:"userId" bson:"user_id"`
	AcceptedAt time.Time          `json:"acceptedAt" bson:"accepted_at"`
	Status     IssueStatus        `json:"status" bson:"status"`
	ResolvedAt *time.Time         `json:"resolvedAt,omitempty" bson:"resolved_at,omitempty"`
}

// Issue is a help request. Stored in the "posts" collection.
type Issue struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID `json:"userId" bson:"user_id"`
	Location          GeoPoint           `json:"location" bson:"location"`
	IssueType         string             `json:"issueType" bson:"issue_type"`
	Status            IssueStatus        `json:"status" bson:"status"`
	Severity          Severity           `json:"severity" bson:"severity"`
	Description       string             `json:"description" bson:"description"`
	MediaURLs         []string           `json:"mediaUrls" bson:"media_urls"`
	Responders        []Responder        `json:"responders" bson:"responders"`
	ResolutionProof   []string           `json:"resolutionProof" bson:"resolution_proof"`
	NotifyAuthorities bool               `json:"notifyAuthorities" bson:"notify_authorities"`
	AuthorityType     string             `json:"authorityType" bson:"authority_type"`
	AIVerified        bool               `json:"aiVerified" bson:"ai_verified"`
	FlaggedByAI       bool               `json:"flaggedByAI" bson:"flagged_by_ai"`
	ReportedAt        time.Time          `json:"reportedAt" bson:"reported_at"`
	ResolvedAt        *time.Time         `json:"resolvedAt" bson:"resolved_at"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updated_at"`
}

func (i *Issue) IsResolved() bool {
	return i.Status == IssueStatusResolved
}

func (i *Issue) HasResponder(userID primitive.ObjectID) bool {
	return i.ResponderIndex(userID) >= 0
}

func (i *Issue) ResponderIndex(userID primitive.ObjectID) int {
	for idx, r := range i.Responders {
		if r.UserID == userID {
			return idx
		}
	}
	return -1
}

func (i *Issue) ResolvedResponderCount() int {
	count := 0
	for _, r := range i.Responders {
		if r.Status == IssueStatusResolved {
			count++
		}
	}
	return count
}

// Clone returns a deep copy so callers never share slices with a store.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	c := *i
	c.MediaURLs = append([]string{}, i.MediaURLs...)
	c.ResolutionProof = append([]string{}, i.ResolutionProof...)
	c.Responders = make([]Responder, len(i.Responders))
	for idx, r := range i.Responders {
		c.Responders[idx] = r
		if r.ResolvedAt != nil {
			t := *r.ResolvedAt
			c.Responders[idx].ResolvedAt = &t
		}
	}
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// PostView is the list representation of an issue. Timestamps are epoch
// milliseconds and responders carry display names.
type PostView struct {
	ID                      string          `json:"id"`
	UserID                  string          `json:"userId"`
	UserName                string          `json:"userName,omitempty"`
	Location                GeoPoint        `json:"location"`
	IssueType               string          `json:"issueType"`
	Status                  IssueStatus     `json:"status"`
	Severity                Severity        `json:"severity"`
	Description             string          `json:"description"`
	MediaURLs               []string        `json:"mediaUrls"`
	Responders              []ResponderView `json:"responders"`
	RespondersResolvedCount int             `json:"respondersResolvedCount"`
	AIVerified              bool            `json:"aiVerified"`
	FlaggedByAI             bool            `json:"flaggedByAI"`
	ReportedAt              int64           `json:"reportedAt"`
	ResolvedAt              *int64          `json:"resolvedAt"`
}

type ResponderView struct {
	UserID     string      `json:"userId"`
	UserName   string      `json:"userName,omitempty"`
	AcceptedAt int64       `json:"acceptedAt"`
	Status     IssueStatus `json:"status"`
	ResolvedAt *int64      `json:"resolvedAt,omitempty"`
}
