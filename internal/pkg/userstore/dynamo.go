package userstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/unisynhq/unisyn-web/app/models"
	"github.com/unisynhq/unisyn-web/internal/pkg/env"
)

// DynamoStore keeps subscription records in a DynamoDB table with the
// customer email as partition key. Writes go through UpdateItem so that each
// event only touches its own attributes.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
	nowFn  func() time.Time
}

// NewDynamoStoreFromEnv builds the store from AWS_REGION, DYNAMO_TABLE_NAME
// and (optionally) static credentials in the environment.
func NewDynamoStoreFromEnv(ctx context.Context) (*DynamoStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(env.GetEnv("AWS_REGION", "us-east-1")),
	}
	if accessKey := env.GetEnv("AWS_ACCESS_KEY_ID", ""); accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				accessKey,
				env.GetEnv("AWS_SECRET_ACCESS_KEY", ""),
				env.GetEnv("AWS_SESSION_TOKEN", ""),
			),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint := env.GetEnv("DYNAMO_ENDPOINT", ""); endpoint != "" {
			// Local DynamoDB for development
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return NewDynamoStore(client, env.GetEnv("DYNAMO_TABLE_NAME", "UnisynUsers")), nil
}

// NewDynamoStore creates the store on an existing client.
func NewDynamoStore(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
		nowFn:  time.Now,
	}
}

func (s *DynamoStore) UpsertMerge(ctx context.Context, email string, update SubscriptionUpdate) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("userstore: email is required")
	}

	expr, names, values := buildUpdateExpression(update, s.nowFn().UTC().Format(time.RFC3339))
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       map[string]types.AttributeValue{"email": &types.AttributeValueMemberS{Value: email}},
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("userstore: dynamo upsert for %s: %w", email, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, email string) (*models.SubscriptionRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       map[string]types.AttributeValue{"email": &types.AttributeValueMemberS{Value: email}},
	})
	if err != nil {
		return nil, fmt.Errorf("userstore: dynamo get for %s: %w", email, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var record models.SubscriptionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("userstore: unmarshal record for %s: %w", email, err)
	}
	return &record, nil
}

// buildUpdateExpression renders a deterministic SET expression covering the
// update's fields plus the updatedAt stamp. Attribute names are sorted so the
// expression is stable.
func buildUpdateExpression(update SubscriptionUpdate, updatedAt string) (string, map[string]string, map[string]types.AttributeValue) {
	fields := update.Fields()
	fields["updatedAt"] = updatedAt

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string, len(fields))
	values := make(map[string]types.AttributeValue, len(fields))
	parts := make([]string, 0, len(fields))
	for _, k := range keys {
		names["#"+k] = k
		values[":"+k] = &types.AttributeValueMemberS{Value: fields[k]}
		parts = append(parts, fmt.Sprintf("#%s = :%s", k, k))
	}

	return "SET " + strings.Join(parts, ", "), names, values
}
