package repository

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
	"github.com/bim-viewer/bim-viewer-backend/internal/storage/dynamo"
)

// fakeDynamo satisfies dynamo.API via per-method function fields; only
// the methods a test wires are callable.
type fakeDynamo struct {
	getItem       func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem       func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	query         func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	scan          func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	updateItem    func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	deleteItem    func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	batchGetItem  func(*dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error)
	transactWrite func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error)
	describeTable func(*dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)
}

func (f *fakeDynamo) GetItem(_ context.Context, p *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(p)
}

func (f *fakeDynamo) PutItem(_ context.Context, p *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItem(p)
}

func (f *fakeDynamo) Query(_ context.Context, p *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.query(p)
}

func (f *fakeDynamo) Scan(_ context.Context, p *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scan(p)
}

func (f *fakeDynamo) UpdateItem(_ context.Context, p *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.updateItem(p)
}

func (f *fakeDynamo) DeleteItem(_ context.Context, p *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return f.deleteItem(p)
}

func (f *fakeDynamo) BatchGetItem(_ context.Context, p *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	return f.batchGetItem(p)
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, p *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return f.transactWrite(p)
}

func (f *fakeDynamo) DescribeTable(_ context.Context, p *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return f.describeTable(p)
}

var testTables = dynamo.Tables{
	Issues:      "issues-test",
	Projects:    "projects-test",
	Permissions: "permissions-test",
}

func TestRepo_CreateWithOwner(t *testing.T) {
	ctx := context.Background()

	var captured *dynamodb.TransactWriteItemsInput
	db := &fakeDynamo{
		transactWrite: func(in *dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
			captured = in
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}
	repo := NewRepo(db, testTables)

	project := &domain.Project{ProjectID: "p1", ProjectName: "Tower", ModelKey: "k", OwnerID: "alice", CreatedAt: domain.Now()}
	perm := &domain.Permission{PermissionID: "perm1", ProjectID: "p1", UserID: "alice", Role: domain.RoleOwner}

	require.NoError(t, repo.CreateWithOwner(ctx, project, perm))
	require.NotNil(t, captured)
	require.Len(t, captured.TransactItems, 2)

	projPut := captured.TransactItems[0].Put
	require.NotNil(t, projPut)
	assert.Equal(t, "projects-test", aws.ToString(projPut.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "p1"}, projPut.Item["projectId"])
	// the retrieval link is read-time state and must never be persisted
	assert.NotContains(t, projPut.Item, "modelUrl")

	permPut := captured.TransactItems[1].Put
	require.NotNil(t, permPut)
	assert.Equal(t, "permissions-test", aws.ToString(permPut.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "alice"}, permPut.Item["userId"])
}

func TestRepo_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		item, err := attributevalue.MarshalMap(&domain.Project{ProjectID: "p1", ProjectName: "Tower"})
		require.NoError(t, err)

		db := &fakeDynamo{
			getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
				assert.Equal(t, "projects-test", aws.ToString(in.TableName))
				assert.Equal(t, &types.AttributeValueMemberS{Value: "p1"}, in.Key["projectId"])
				return &dynamodb.GetItemOutput{Item: item}, nil
			},
		}

		p, err := NewRepo(db, testTables).Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Tower", p.ProjectName)
	})

	t.Run("absent item maps to not found", func(t *testing.T) {
		db := &fakeDynamo{
			getItem: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
				return &dynamodb.GetItemOutput{}, nil
			},
		}

		_, err := NewRepo(db, testTables).Get(ctx, "p1")
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})
}

func TestRepo_BatchGet_Chunks(t *testing.T) {
	ctx := context.Background()

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = "p"
	}

	var chunkSizes []int
	db := &fakeDynamo{
		batchGetItem: func(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
			keys := in.RequestItems["projects-test"].Keys
			chunkSizes = append(chunkSizes, len(keys))
			return &dynamodb.BatchGetItemOutput{
				Responses: map[string][]map[string]types.AttributeValue{},
			}, nil
		},
	}

	_, err := NewRepo(db, testTables).BatchGet(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 50}, chunkSizes)
}

func TestRepo_ScanProjects_Pages(t *testing.T) {
	ctx := context.Background()

	page1, err := attributevalue.MarshalMap(&domain.Project{ProjectID: "p1"})
	require.NoError(t, err)
	page2, err := attributevalue.MarshalMap(&domain.Project{ProjectID: "p2"})
	require.NoError(t, err)

	calls := 0
	db := &fakeDynamo{
		scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			calls++
			if calls == 1 {
				assert.Nil(t, in.ExclusiveStartKey)
				return &dynamodb.ScanOutput{
					Items:            []map[string]types.AttributeValue{page1},
					LastEvaluatedKey: map[string]types.AttributeValue{"projectId": &types.AttributeValueMemberS{Value: "p1"}},
				}, nil
			}
			assert.NotNil(t, in.ExclusiveStartKey)
			return &dynamodb.ScanOutput{
				Items: []map[string]types.AttributeValue{page2},
			}, nil
		},
	}

	var seen []string
	err = NewRepo(db, testTables).ScanProjects(ctx, func(page []domain.Project) error {
		for _, p := range page {
			seen = append(seen, p.ProjectID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"p1", "p2"}, seen)
}

func TestPermissionRepo_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("point read on the composite key", func(t *testing.T) {
		item, err := attributevalue.MarshalMap(&domain.Permission{
			PermissionID: "perm1", ProjectID: "p1", UserID: "alice", Role: domain.RoleOwner,
		})
		require.NoError(t, err)

		db := &fakeDynamo{
			getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
				assert.Equal(t, "permissions-test", aws.ToString(in.TableName))
				assert.Equal(t, &types.AttributeValueMemberS{Value: "p1"}, in.Key["projectId"])
				assert.Equal(t, &types.AttributeValueMemberS{Value: "alice"}, in.Key["userId"])
				return &dynamodb.GetItemOutput{Item: item}, nil
			},
		}

		perm, err := NewPermissionRepo(db, testTables).Get(ctx, "p1", "alice")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleOwner, perm.Role)
	})

	t.Run("absent item maps to not found", func(t *testing.T) {
		db := &fakeDynamo{
			getItem: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
				return &dynamodb.GetItemOutput{}, nil
			},
		}

		_, err := NewPermissionRepo(db, testTables).Get(ctx, "p1", "alice")
		assert.ErrorIs(t, err, domain.ErrPermissionNotFound)
	})
}

func TestPermissionRepo_ListByUser(t *testing.T) {
	ctx := context.Background()

	item1, err := attributevalue.MarshalMap(&domain.Permission{PermissionID: "x", ProjectID: "p1", UserID: "alice", Role: domain.RoleOwner})
	require.NoError(t, err)
	item2, err := attributevalue.MarshalMap(&domain.Permission{PermissionID: "y", ProjectID: "p2", UserID: "alice", Role: domain.RoleCollaborator})
	require.NoError(t, err)

	calls := 0
	db := &fakeDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			calls++
			assert.Equal(t, dynamo.PermissionsUserIndex, aws.ToString(in.IndexName))
			if calls == 1 {
				return &dynamodb.QueryOutput{
					Items:            []map[string]types.AttributeValue{item1},
					LastEvaluatedKey: map[string]types.AttributeValue{"userId": &types.AttributeValueMemberS{Value: "alice"}},
				}, nil
			}
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item2}}, nil
		},
	}

	perms, err := NewPermissionRepo(db, testTables).ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, "p1", perms[0].ProjectID)
	assert.Equal(t, "p2", perms[1].ProjectID)
	assert.Equal(t, 2, calls)
}
