package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PhoneNumber  *string   `json:"phoneNumber,omitempty" dynamodbav:"phone_number,omitempty"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	FirstName    string    `json:"firstName" dynamodbav:"first_name"`
	LastName     string    `json:"lastName" dynamodbav:"last_name"`
	CompanyName  string    `json:"companyName,omitempty" dynamodbav:"company_name"`
	Avatar       string    `json:"avatar,omitempty" dynamodbav:"avatar"` // S3 object key
	UserType     string    `json:"userType" dynamodbav:"user_type"`
	IsVerified   bool      `json:"isVerified" dynamodbav:"is_verified"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// UserProfile is a user together with the records it owns.
type UserProfile struct {
	*User
	Membership *UserMembership `json:"membership,omitempty"`
	Posts      []PostDetail    `json:"posts"`
}

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,e164"`
	FirstName   string  `json:"firstName" validate:"omitempty,alpha,max=20"`
	LastName    string  `json:"lastName" validate:"omitempty,alpha,max=20"`
	CompanyName string  `json:"companyName" validate:"omitempty,alphanum,max=20"`
}

type UpdateUserRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,alpha,max=20"`
	LastName    *string `json:"lastName" validate:"omitempty,alpha,max=20"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,e164"`
	CompanyName *string `json:"companyName" validate:"omitempty,alphanum,max=20"`
	// UserType is honoured only on the admin route.
	UserType *string `json:"userType" validate:"omitempty,oneof=ADMIN USER"`
}
