package kv

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by Dynamo.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Dynamo implements Storage on a DynamoDB table whose hash key is the string
// attribute "Key".
type Dynamo struct {
	client DynamoAPI
	table  string
}

// NewDynamo creates a storage over an existing client.
func NewDynamo(client DynamoAPI, table string) *Dynamo {
	return &Dynamo{client: client, table: table}
}

// NewDynamoFromEnv loads the default AWS configuration and creates a storage
// for table.
func NewDynamoFromEnv(ctx context.Context, table string) (*Dynamo, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewDynamo(dynamodb.NewFromConfig(cfg), table), nil
}

// Get returns the value for key.
func (s *Dynamo) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"Key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return "", err
	}
	if len(out.Item) == 0 {
		return "", ErrNotFound
	}
	v, ok := out.Item["Value"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("item %q: Value is not a string attribute", key)
	}
	return v.Value, nil
}

// Set stores value under key.
func (s *Dynamo) Set(ctx context.Context, key, value string) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"Key":   &types.AttributeValueMemberS{Value: key},
			"Value": &types.AttributeValueMemberS{Value: value},
		},
	})
	return err
}

// Close is a no-op; the AWS client holds no resources that need releasing.
func (s *Dynamo) Close() error { return nil }
