package auth

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// ErrUserNotFound reports that no identity exists for the given contact.
var ErrUserNotFound = fmt.Errorf("user not found")

// Directory resolves an external contact address to a subject identifier.
type Directory interface {
	LookupByEmail(ctx context.Context, email string) (string, error)
}

// CognitoDirectory looks identities up in the Cognito user pool.
type CognitoDirectory struct {
	client     *cognito.Client
	userPoolID string
}

func NewCognitoDirectory(cfg aws.Config, userPoolID string) *CognitoDirectory {
	return &CognitoDirectory{
		client:     cognito.NewFromConfig(cfg),
		userPoolID: userPoolID,
	}
}

func (d *CognitoDirectory) LookupByEmail(ctx context.Context, email string) (string, error) {
	out, err := d.client.ListUsers(ctx, &cognito.ListUsersInput{
		UserPoolId: aws.String(d.userPoolID),
		Filter:     aws.String(fmt.Sprintf("email = %q", email)),
		Limit:      aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("cognito list users: %w", err)
	}
	if len(out.Users) == 0 {
		return "", ErrUserNotFound
	}

	for _, attr := range out.Users[0].Attributes {
		if aws.ToString(attr.Name) == "sub" {
			return aws.ToString(attr.Value), nil
		}
	}
	return "", fmt.Errorf("user record has no sub attribute")
}
