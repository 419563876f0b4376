package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/huntier-api/internal/domain"
)

// OTPCodeRepo stores pending one-time codes.
// PK: contact, SK: purpose. expires_at doubles as the table TTL.
type OTPCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPCodeRepo(client *dynamodb.Client, tableName string) *OTPCodeRepo {
	return &OTPCodeRepo{client: client, tableName: tableName}
}

func (r *OTPCodeRepo) key(contact string, purpose domain.OTPPurpose) map[string]types.AttributeValue {
	return compositeKey("contact", contact, "purpose", string(purpose))
}

// Put replaces any code already pending for the same contact and purpose.
func (r *OTPCodeRepo) Put(ctx context.Context, c *domain.OTPCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal otp code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPCodeRepo) Get(ctx context.Context, contact string, purpose domain.OTPPurpose) (*domain.OTPCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(contact, purpose),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp code not found: %w", domain.ErrNotFound)
	}
	var c domain.OTPCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *OTPCodeRepo) Delete(ctx context.Context, contact string, purpose domain.OTPPurpose) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(contact, purpose),
	})
	return err
}

// Consume deletes the code only while it still holds codeHash. A code that was
// already consumed or replaced by a resend yields ErrUnauthorized, so at most
// one caller redeems it.
func (r *OTPCodeRepo) Consume(ctx context.Context, contact string, purpose domain.OTPPurpose, codeHash string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(contact, purpose),
		ConditionExpression: aws.String("#h = :h"),
		ExpressionAttributeNames: map[string]string{
			"#h": fieldCodeHash,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h": &types.AttributeValueMemberS{Value: codeHash},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("code already used or replaced: %w", domain.ErrUnauthorized)
	}
	return err
}

// IncrementAttempts records one verification attempt while attempts < max and
// returns the new count. ErrLimitReached means the code was already exhausted.
func (r *OTPCodeRepo) IncrementAttempts(ctx context.Context, contact string, purpose domain.OTPPurpose, max int) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(contact, purpose),
		UpdateExpression:    aws.String("SET #a = #a + :one"),
		ConditionExpression: aws.String("attribute_exists(contact) AND #a < :max"),
		ExpressionAttributeNames: map[string]string{
			"#a": fieldAttempts,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(max)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return 0, fmt.Errorf("verify attempts exhausted: %w", domain.ErrLimitReached)
	}
	if err != nil {
		return 0, err
	}
	return numberAttr(out.Attributes, fieldAttempts)
}

// Replace swaps in a freshly generated code for a resend while resend_count < max.
// Attempts carry over; the new resend count is returned.
func (r *OTPCodeRepo) Replace(ctx context.Context, contact string, purpose domain.OTPPurpose, codeHash string, sentAt, expiresAt int64, max int) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(contact, purpose),
		UpdateExpression:    aws.String("SET #h = :h, #s = :s, #e = :e, #r = #r + :one"),
		ConditionExpression: aws.String("attribute_exists(contact) AND #r < :max"),
		ExpressionAttributeNames: map[string]string{
			"#h": fieldCodeHash,
			"#s": fieldLastSentAt,
			"#e": fieldExpiresAt,
			"#r": fieldResendCount,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h":   &types.AttributeValueMemberS{Value: codeHash},
			":s":   &types.AttributeValueMemberN{Value: strconv.FormatInt(sentAt, 10)},
			":e":   &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
			":one": &types.AttributeValueMemberN{Value: "1"},
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(max)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return 0, fmt.Errorf("resends exhausted: %w", domain.ErrLimitReached)
	}
	if err != nil {
		return 0, err
	}
	return numberAttr(out.Attributes, fieldResendCount)
}

func numberAttr(attrs map[string]types.AttributeValue, name string) (int, error) {
	n, ok := attrs[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %s missing from update result", name)
	}
	return strconv.Atoi(n.Value)
}
