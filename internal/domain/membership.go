package domain

import "time"

type Membership struct {
	MembershipID string    `json:"id" dynamodbav:"membership_id"`
	Title        string    `json:"title" dynamodbav:"title"`
	Description  string    `json:"description" dynamodbav:"description"`
	Price        float64   `json:"price" dynamodbav:"price"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// UserMembership links a user to the plan they joined. PK: user_id, so a user holds at most one.
type UserMembership struct {
	UserID       string      `json:"userId" dynamodbav:"user_id"`
	MembershipID string      `json:"membershipId" dynamodbav:"membership_id"`
	Membership   *Membership `json:"membership,omitempty" dynamodbav:"-"`
	CreatedAt    time.Time   `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" dynamodbav:"updated_at"`
}

type CreateMembershipRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type UpdateMembershipRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=100"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}
