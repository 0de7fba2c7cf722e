package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/bim-viewer/bim-viewer-backend/config"
	"github.com/bim-viewer/bim-viewer-backend/internal/bootstrap"
	issuedomain "github.com/bim-viewer/bim-viewer-backend/internal/issues/domain"
	projdomain "github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
	"github.com/bim-viewer/bim-viewer-backend/internal/storage/dynamo"
)

func main() {
	seed := flag.Bool("seed", false, "insert a demo project with sample issues after table creation")
	owner := flag.String("owner", "demo-user", "subject id that owns the seeded demo project")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	awsCfg, err := bootstrap.OpenAWS(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatalf("aws: %v", err)
	}
	client := dynamo.New(awsCfg)

	tables := []tableSpec{
		projectsTable(cfg.Tables.Projects),
		permissionsTable(cfg.Tables.Permissions),
		issuesTable(cfg.Tables.Issues),
	}
	for _, t := range tables {
		if err := ensureTable(ctx, client, t); err != nil {
			log.Fatalf("create table %s: %v", t.name, err)
		}
	}

	if *seed {
		if err := seedDemoData(ctx, client, cfg, *owner); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	log.Println("setup complete")
}

type tableSpec struct {
	name       string
	attributes []types.AttributeDefinition
	keySchema  []types.KeySchemaElement
	indexes    []types.GlobalSecondaryIndex
}

func projectsTable(name string) tableSpec {
	return tableSpec{
		name: name,
		attributes: []types.AttributeDefinition{
			{AttributeName: aws.String("projectId"), AttributeType: types.ScalarAttributeTypeS},
		},
		keySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("projectId"), KeyType: types.KeyTypeHash},
		},
	}
}

func permissionsTable(name string) tableSpec {
	return tableSpec{
		name: name,
		attributes: []types.AttributeDefinition{
			{AttributeName: aws.String("projectId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("userId"), AttributeType: types.ScalarAttributeTypeS},
		},
		keySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("projectId"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("userId"), KeyType: types.KeyTypeRange},
		},
		indexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(dynamo.PermissionsUserIndex),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("userId"), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	}
}

func issuesTable(name string) tableSpec {
	return tableSpec{
		name: name,
		attributes: []types.AttributeDefinition{
			{AttributeName: aws.String("projectId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sortKey"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		keySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("projectId"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sortKey"), KeyType: types.KeyTypeRange},
		},
		indexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(dynamo.IssuesIDIndex),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	}
}

// ensureTable creates the table if it does not exist yet and waits until
// it is active. Existing tables are left untouched.
func ensureTable(ctx context.Context, client *dynamodb.Client, spec tableSpec) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(spec.name),
	})
	if err == nil {
		log.Printf("table %s already exists", spec.name)
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table: %w", err)
	}

	log.Printf("creating table %s", spec.name)

	in := &dynamodb.CreateTableInput{
		TableName:            aws.String(spec.name),
		AttributeDefinitions: spec.attributes,
		KeySchema:            spec.keySchema,
		BillingMode:          types.BillingModePayPerRequest,
	}
	if len(spec.indexes) > 0 {
		in.GlobalSecondaryIndexes = spec.indexes
	}

	if _, err := client.CreateTable(ctx, in); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(spec.name),
	}, 5*time.Minute); err != nil {
		return fmt.Errorf("wait for table: %w", err)
	}

	log.Printf("table %s ready", spec.name)
	return nil
}

// seedDemoData inserts one demo project owned by the given subject, its
// owner permission, and a handful of issues spanning the priority and
// status values.
func seedDemoData(ctx context.Context, client *dynamodb.Client, cfg *config.Config, ownerID string) error {
	projectID := uuid.NewString()
	now := issuedomain.Now()

	project := &projdomain.Project{
		ProjectID:   projectID,
		ProjectName: "Demo Building",
		ModelKey:    "demo/building.glb",
		OwnerID:     ownerID,
		CreatedAt:   now,
	}
	if err := putItem(ctx, client, cfg.Tables.Projects, project); err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	perm := &projdomain.Permission{
		PermissionID: uuid.NewString(),
		ProjectID:    projectID,
		UserID:       ownerID,
		Role:         projdomain.RoleOwner,
	}
	if err := putItem(ctx, client, cfg.Tables.Permissions, perm); err != nil {
		return fmt.Errorf("seed permission: %w", err)
	}

	samples := []struct {
		objectID    string
		title       string
		description string
		author      string
		priority    string
		status      string
	}{
		{"wall-001", "Wall alignment issue", "The wall is not properly aligned with the grid", "John Doe", issuedomain.PriorityHigh, issuedomain.StatusOpen},
		{"wall-001", "Material specification", "Need to verify the material specification for this wall", "Jane Smith", issuedomain.PriorityMedium, issuedomain.StatusInProgress},
		{"door-001", "Door swing direction", "Door should swing outward for fire safety compliance", "Bob Johnson", issuedomain.PriorityHigh, issuedomain.StatusResolved},
	}

	ts := now
	for _, s := range samples {
		ts = issuedomain.NextTimestamp(ts)
		id := uuid.NewString()
		issue := &issuedomain.Issue{
			ID:          id,
			ProjectID:   projectID,
			SortKey:     issuedomain.NewSortKey(ts, id),
			ObjectID:    s.objectID,
			Title:       s.title,
			Description: s.description,
			Author:      s.author,
			Priority:    s.priority,
			Status:      s.status,
			CreatedAt:   ts,
			UpdatedAt:   ts,
			OwnerSub:    ownerID,
		}
		if err := putItem(ctx, client, cfg.Tables.Issues, issue); err != nil {
			return fmt.Errorf("seed issue %q: %w", s.title, err)
		}
		log.Printf("seeded issue: %s", s.title)
	}

	log.Printf("seeded demo project %s (owner %s)", projectID, ownerID)
	return nil
}

func putItem(ctx context.Context, client *dynamodb.Client, table string, v any) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}
