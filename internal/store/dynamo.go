package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mathtutor/apiserver/types"
)

// emailIndexName is the global secondary index keyed by user_email.
const emailIndexName = "user_email_index"

// DynamoStore persists users in a DynamoDB table keyed by uid, with a
// secondary index for email lookups.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoStore(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// dynamoUser mirrors the item layout of the original table, where the
// hash attribute is named user_password.
type dynamoUser struct {
	UID          string     `dynamodbav:"uid"`
	Email        string     `dynamodbav:"user_email"`
	Name         string     `dynamodbav:"user_name"`
	PasswordHash string     `dynamodbav:"user_password"`
	Age          int        `dynamodbav:"user_age"`
	CreatedAt    time.Time  `dynamodbav:"date_created"`
	LastLoginAt  *time.Time `dynamodbav:"last_logged_in"`
}

func (s *DynamoStore) Put(ctx context.Context, user types.User) error {
	item, err := attributevalue.MarshalMap(toDynamoUser(user))
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}

func (s *DynamoStore) GetByID(ctx context.Context, uid string) (types.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"uid": &ddbtypes.AttributeValueMemberS{Value: uid},
		},
	})
	if err != nil {
		return types.User{}, err
	}
	if out.Item == nil {
		return types.User{}, ErrNotFound
	}
	return unmarshalUser(out.Item)
}

func (s *DynamoStore) GetByEmail(ctx context.Context, email string) (types.User, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(emailIndexName),
		KeyConditionExpression: aws.String("user_email = :email"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":email": &ddbtypes.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return types.User{}, err
	}
	if len(out.Items) == 0 {
		return types.User{}, ErrNotFound
	}
	return unmarshalUser(out.Items[0])
}

func (s *DynamoStore) UpdateLastLogin(ctx context.Context, uid string, at time.Time) error {
	ts, err := attributevalue.Marshal(at)
	if err != nil {
		return err
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"uid": &ddbtypes.AttributeValueMemberS{Value: uid},
		},
		UpdateExpression:    aws.String("SET last_logged_in = :ts"),
		ConditionExpression: aws.String("attribute_exists(uid)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":ts": ts,
		},
	})
	if err != nil {
		var conditionFailed *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func toDynamoUser(user types.User) dynamoUser {
	return dynamoUser{
		UID:          user.UID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Age:          user.Age,
		CreatedAt:    user.CreatedAt,
		LastLoginAt:  user.LastLoginAt,
	}
}

func unmarshalUser(item map[string]ddbtypes.AttributeValue) (types.User, error) {
	var record dynamoUser
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return types.User{}, err
	}
	return types.User{
		UID:          record.UID,
		Email:        record.Email,
		Name:         record.Name,
		PasswordHash: record.PasswordHash,
		Age:          record.Age,
		CreatedAt:    record.CreatedAt,
		LastLoginAt:  record.LastLoginAt,
	}, nil
}
