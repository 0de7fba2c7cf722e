package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
	"github.com/bim-viewer/bim-viewer-backend/internal/storage/dynamo"
)

// PermissionRepo stores permission rows keyed (projectId, userId), so
// the membership test is a point read and the key structure itself
// enforces at most one row per pair.
type PermissionRepo struct {
	db     dynamo.API
	tables dynamo.Tables
}

func NewPermissionRepo(db dynamo.API, tables dynamo.Tables) *PermissionRepo {
	return &PermissionRepo{db: db, tables: tables}
}

func (r *PermissionRepo) Get(ctx context.Context, projectID, userID string) (*domain.Permission, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Permissions),
		Key: map[string]types.AttributeValue{
			"projectId": &types.AttributeValueMemberS{Value: projectID},
			"userId":    &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrPermissionNotFound
	}

	var perm domain.Permission
	if err := attributevalue.UnmarshalMap(out.Item, &perm); err != nil {
		return nil, fmt.Errorf("unmarshal permission: %w", err)
	}
	return &perm, nil
}

func (r *PermissionRepo) Put(ctx context.Context, perm *domain.Permission) error {
	item, err := attributevalue.MarshalMap(perm)
	if err != nil {
		return fmt.Errorf("marshal permission: %w", err)
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tables.Permissions),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put permission: %w", err)
	}
	return nil
}

// ListByUser queries the userId index for every grant the subject holds.
func (r *PermissionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("userId").Equal(expression.Value(userID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	perms := make([]domain.Permission, 0, 8)
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tables.Permissions),
			IndexName:                 aws.String(dynamo.PermissionsUserIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query permissions: %w", err)
		}

		var page []domain.Permission
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal permissions: %w", err)
		}
		perms = append(perms, page...)

		if out.LastEvaluatedKey == nil {
			return perms, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
