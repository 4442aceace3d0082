package dynamo

// DynamoDB attribute names used in keys, indexes and expressions across all repos.
const (
	attrUserID       = "user_id"
	attrPurpose      = "purpose"
	attrEmail        = "email"
	attrPhoneNumber  = "phone_number"
	attrOTP          = "otp"
	attrCurrentOTP   = "current_otp"
	attrMembershipID = "membership_id"
	attrPostID       = "post_id"
	attrCommentID    = "comment_id"
	attrUpdatedAt    = "updated_at"
	attrExpiresAt    = "expires_at"
)

// GSI names.
const (
	indexEmail        = "email-index"
	indexPhoneNumber  = "phone_number-index"
	indexUserID       = "user_id-index"
	indexMembershipID = "membership_id-index"
	indexPostID       = "post_id-index"
)
