package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/huntier-api/internal/domain"
)

// BlacklistRepo stores blocked contacts. PK: contact.
// Temporary blocks carry expires_at, which the table TTL eventually reaps;
// permanent blocks omit it.
type BlacklistRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBlacklistRepo(client *dynamodb.Client, tableName string) *BlacklistRepo {
	return &BlacklistRepo{client: client, tableName: tableName}
}

func (r *BlacklistRepo) Put(ctx context.Context, e *domain.BlacklistEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal blacklist entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *BlacklistRepo) Get(ctx context.Context, contact string) (*domain.BlacklistEntry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("contact", contact),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("blacklist entry not found: %w", domain.ErrNotFound)
	}
	var e domain.BlacklistEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *BlacklistRepo) Delete(ctx context.Context, contact string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("contact", contact),
	})
	return err
}

// ScanPage returns a page of entries. cursor is a base64-encoded contact used
// as ExclusiveStartKey; the returned cursor is empty on the last page.
func (r *BlacklistRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.BlacklistEntry, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		contact, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("contact", contact)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var entries []domain.BlacklistEntry
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		return nil, "", err
	}
	next := ""
	if v, ok := out.LastEvaluatedKey["contact"].(*types.AttributeValueMemberS); ok {
		next = encodeCursor(v.Value)
	}
	return entries, next, nil
}
