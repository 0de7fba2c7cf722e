package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Index names shared between the repositories and the setup CLI.
const (
	IssuesIDIndex        = "id-index"
	PermissionsUserIndex = "userId-index"
)

// API is the subset of the DynamoDB client the repositories use.
// Keeping it narrow lets tests substitute a fake without AWS.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Tables holds the three table names the service reads and writes.
type Tables struct {
	Issues      string
	Projects    string
	Permissions string
}

func New(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// Store bundles the client with its table names and answers health probes.
type Store struct {
	api    API
	tables Tables
}

func NewStore(api API, tables Tables) *Store {
	return &Store{api: api, tables: tables}
}

func (s *Store) API() API {
	return s.api
}

func (s *Store) Tables() Tables {
	return s.tables
}

// Ping verifies the store is reachable by describing the issues table.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tables.Issues),
	})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.tables.Issues, err)
	}
	return nil
}
