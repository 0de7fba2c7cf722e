package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bim-viewer/bim-viewer-backend/internal/issues/domain"
	"github.com/bim-viewer/bim-viewer-backend/internal/storage/dynamo"
)

type Repo struct {
	db     dynamo.API
	tables dynamo.Tables
}

func NewRepo(db dynamo.API, tables dynamo.Tables) *Repo {
	return &Repo{db: db, tables: tables}
}

func (r *Repo) Put(ctx context.Context, issue *domain.Issue) error {
	item, err := attributevalue.MarshalMap(issue)
	if err != nil {
		return fmt.Errorf("marshal issue: %w", err)
	}

	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tables.Issues),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put issue: %w", err)
	}
	return nil
}

// ListByProject queries the project partition newest-first: the sort key
// starts with the creation timestamp, so a descending range read is a
// recency ordering.
func (r *Repo) ListByProject(ctx context.Context, projectID string) ([]domain.Issue, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("projectId").Equal(expression.Value(projectID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	issues := make([]domain.Issue, 0, 16)
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tables.Issues),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query issues: %w", err)
		}

		var page []domain.Issue
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal issues: %w", err)
		}
		issues = append(issues, page...)

		if out.LastEvaluatedKey == nil {
			return issues, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// GetByID resolves an issue through the id index, since the logical id
// is not part of the physical key.
func (r *Repo) GetByID(ctx context.Context, issueID string) (*domain.Issue, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("id").Equal(expression.Value(issueID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	out, err := r.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tables.Issues),
		IndexName:                 aws.String(dynamo.IssuesIDIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query issue by id: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, domain.ErrIssueNotFound
	}

	var issue domain.Issue
	if err := attributevalue.UnmarshalMap(out.Items[0], &issue); err != nil {
		return nil, fmt.Errorf("unmarshal issue: %w", err)
	}
	return &issue, nil
}

// Update applies the whitelisted field changes plus updatedAt to the row
// and returns the post-update record.
func (r *Repo) Update(ctx context.Context, projectID, sortKey string, changes map[string]string, updatedAt string) (*domain.Issue, error) {
	update := expression.Set(expression.Name("updatedAt"), expression.Value(updatedAt))
	for field, value := range changes {
		update = update.Set(expression.Name(field), expression.Value(value))
	}

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	out, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tables.Issues),
		Key:                       issueKey(projectID, sortKey),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}

	var issue domain.Issue
	if err := attributevalue.UnmarshalMap(out.Attributes, &issue); err != nil {
		return nil, fmt.Errorf("unmarshal issue: %w", err)
	}
	return &issue, nil
}

func (r *Repo) Delete(ctx context.Context, projectID, sortKey string) error {
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tables.Issues),
		Key:       issueKey(projectID, sortKey),
	})
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	return nil
}

func issueKey(projectID, sortKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"projectId": &types.AttributeValueMemberS{Value: projectID},
		"sortKey":   &types.AttributeValueMemberS{Value: sortKey},
	}
}
