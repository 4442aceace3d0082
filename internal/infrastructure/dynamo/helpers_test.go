package dynamo

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"is_verified": true})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "is_verified"}, ue.Names)

	av, ok := ue.Values[":v0"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	assert.True(t, av.Value)
}

func TestBuildUpdateExpr_SortedAndStable(t *testing.T) {
	updates := map[string]interface{}{
		attrUpdatedAt:   "2026-01-02T00:00:00Z",
		attrEmail:       "new@x.com",
		"password_hash": "hash",
	}
	first, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	second, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, first.Expr, second.Expr)
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", first.Expr)
	assert.Equal(t, []string{attrEmail, "password_hash", attrUpdatedAt},
		[]string{first.Names["#f0"], first.Names["#f1"], first.Names["#f2"]})
}

func TestBuildUpdateExpr_Empty(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestCompositeKey(t *testing.T) {
	key := compositeKey(attrUserID, "u1", attrPurpose, string(domain.OTPPasswordReset))
	require.Len(t, key, 2)
	assert.Equal(t, "u1", key[attrUserID].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, string(domain.OTPPasswordReset), key[attrPurpose].(*types.AttributeValueMemberS).Value)
}

func TestConditionFailureMapping(t *testing.T) {
	ccf := &types.ConditionalCheckFailedException{}
	other := errors.New("throttled")

	assert.ErrorIs(t, notFoundOnConditionFailure(ccf, "user"), domain.ErrNotFound)
	assert.EqualError(t, notFoundOnConditionFailure(ccf, "user"), "user not found: not found")
	assert.ErrorIs(t, conflictOnConditionFailure(ccf, "pending record"), domain.ErrConflict)

	assert.Same(t, other, notFoundOnConditionFailure(other, "user"))
	assert.Same(t, other, conflictOnConditionFailure(other, "user"))
}
