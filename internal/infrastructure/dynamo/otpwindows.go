package dynamo

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// OTPWindowRepo counts code issuances per contact per fixed time window.
// PK: contact, SK: window (start of the window as Unix seconds).
type OTPWindowRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPWindowRepo(client *dynamodb.Client, tableName string) *OTPWindowRepo {
	return &OTPWindowRepo{client: client, tableName: tableName}
}

// Increment atomically bumps the counter for (contact, window) and returns the new value.
// The row expires with the window through the table TTL.
func (r *OTPWindowRepo) Increment(ctx context.Context, contact, window string, expiresAt int64) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              compositeKey("contact", contact, "window", window),
		UpdateExpression: aws.String("SET #e = if_not_exists(#e, :exp) ADD #c :one"),
		ExpressionAttributeNames: map[string]string{
			"#e": fieldExpiresAt,
			"#c": fieldCount,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":exp": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	return numberAttr(out.Attributes, fieldCount)
}
