package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
	"github.com/bim-viewer/bim-viewer-backend/internal/storage/dynamo"
)

// batchGetLimit is DynamoDB's per-request cap on BatchGetItem keys.
const batchGetLimit = 100

type Repo struct {
	db     dynamo.API
	tables dynamo.Tables
}

func NewRepo(db dynamo.API, tables dynamo.Tables) *Repo {
	return &Repo{db: db, tables: tables}
}

// CreateWithOwner writes the project and its owner permission in a
// single transaction: both records exist afterwards or neither does.
func (r *Repo) CreateWithOwner(ctx context.Context, p *domain.Project, perm *domain.Permission) error {
	projectItem, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	permItem, err := attributevalue.MarshalMap(perm)
	if err != nil {
		return fmt.Errorf("marshal permission: %w", err)
	}

	_, err = r.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tables.Projects), Item: projectItem}},
			{Put: &types.Put{TableName: aws.String(r.tables.Permissions), Item: permItem}},
		},
	})
	if err != nil {
		return fmt.Errorf("create project records: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Projects),
		Key:       projectKey(projectID),
	})
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrProjectNotFound
	}

	var p domain.Project
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal project: %w", err)
	}
	return &p, nil
}

// BatchGet fetches the given projects in chunks of the store's batch
// limit. Ids with no backing record are silently absent from the result.
func (r *Repo) BatchGet(ctx context.Context, projectIDs []string) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(projectIDs))

	for start := 0; start < len(projectIDs); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(projectIDs) {
			end = len(projectIDs)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range projectIDs[start:end] {
			keys = append(keys, projectKey(id))
		}

		resp, err := r.db.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tables.Projects: {Keys: keys},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("batch get projects: %w", err)
		}

		var page []domain.Project
		if err := attributevalue.UnmarshalListOfMaps(resp.Responses[r.tables.Projects], &page); err != nil {
			return nil, fmt.Errorf("unmarshal projects: %w", err)
		}
		out = append(out, page...)
	}

	return out, nil
}

// ScanProjects walks the whole projects table page by page, invoking fn
// for each page. Used only by the permission reconciler.
func (r *Repo) ScanProjects(ctx context.Context, fn func([]domain.Project) error) error {
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tables.Projects),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("scan projects: %w", err)
		}

		var page []domain.Project
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return fmt.Errorf("unmarshal projects: %w", err)
		}
		if err := fn(page); err != nil {
			return err
		}

		if out.LastEvaluatedKey == nil {
			return nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func projectKey(projectID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"projectId": &types.AttributeValueMemberS{Value: projectID},
	}
}
