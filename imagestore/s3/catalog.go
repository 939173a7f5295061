package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrConcurrentPublish is returned when another publisher committed the
// same version first. Retry by re-reading Latest and publishing again.
var ErrConcurrentPublish = errors.New("s3: concurrent publish detected")

// ErrNoVersions is returned when an image set has no published version.
var ErrNoVersions = errors.New("s3: image set has no published versions")

// DynamoDBClient is the subset of the DynamoDB API the catalog uses.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Catalog tracks the current published version of an image set. S3 has
// no compare-and-swap, so the version pointer lives in DynamoDB and
// advances with conditional writes; concurrent publishers lose cleanly
// instead of overwriting each other.
//
// Table schema:
//   - Partition key: image_set (string)
//   - Sort key: version (number), monotonically increasing
//   - Attribute: image_key (string), the S3 key of that version
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name membuf-images \
//	  --attribute-definitions AttributeName=image_set,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=image_set,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Catalog struct {
	client   DynamoDBClient
	table    string
	imageSet string
}

// NewCatalog creates a catalog for one image set in the given table.
func NewCatalog(client DynamoDBClient, table, imageSet string) *Catalog {
	return &Catalog{client: client, table: table, imageSet: imageSet}
}

// Latest returns the highest committed version and its S3 image key.
func (c *Catalog) Latest(ctx context.Context) (uint64, string, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("image_set = :set"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":set": &types.AttributeValueMemberS{Value: c.imageSet},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query catalog: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", ErrNoVersions
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: invalid version attribute in catalog")
	}
	keyAttr, ok := item["image_key"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: invalid image_key attribute in catalog")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse version: %w", err)
	}

	return version, keyAttr.Value, nil
}

// Publish commits imageKey as the next version of the set. The write is
// conditional on the version slot being empty; losing the race returns
// ErrConcurrentPublish.
func (c *Catalog) Publish(ctx context.Context, imageKey string) (uint64, error) {
	current, _, err := c.Latest(ctx)
	if err != nil && !errors.Is(err, ErrNoVersions) {
		return 0, err
	}

	next := current + 1

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]types.AttributeValue{
			"image_set": &types.AttributeValueMemberS{Value: c.imageSet},
			"version":   &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"image_key": &types.AttributeValueMemberS{Value: imageKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentPublish
		}
		return 0, fmt.Errorf("s3: commit version: %w", err)
	}

	return next, nil
}
