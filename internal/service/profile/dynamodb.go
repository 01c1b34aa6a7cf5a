package profile

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultEmailIndex is the global secondary index used for conflict checks.
const DefaultEmailIndex = "email-index"

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoDBStore.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBStore implements Backend on a DynamoDB table with hash key uuid
// and a global secondary index on email.
//
// List walks Scan pages and drops the first offset items, so offset keeps
// the same meaning as in the other stores. Order is the table's hash order.
type DynamoDBStore struct {
	client     DynamoDBAPI
	table      string
	emailIndex string
}

// NewDynamoDBStore creates a store for table.
func NewDynamoDBStore(client DynamoDBAPI, table string) *DynamoDBStore {
	return &DynamoDBStore{client: client, table: table, emailIndex: DefaultEmailIndex}
}

// WithEmailIndex overrides the email index name.
func (s *DynamoDBStore) WithEmailIndex(name string) *DynamoDBStore {
	s.emailIndex = name
	return s
}

func uuidKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{fieldUUID: &types.AttributeValueMemberS{Value: id}}
}

func (s *DynamoDBStore) Exists(ctx context.Context, id string) (bool, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(fieldUUID))).
		Build()
	if err != nil {
		return false, backendError(msgExists, err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.table),
		Key:                      uuidKey(id),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return false, backendError(msgExists, err)
	}
	return len(out.Item) > 0, nil
}

func (s *DynamoDBStore) HasConflict(ctx context.Context, email string) (bool, error) {
	keyCond := expression.Key(fieldEmail).Equal(expression.Value(email))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return false, backendError(msgIntegrity, err)
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(s.emailIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return false, backendError(msgIntegrity, err)
	}
	return out.Count > 0, nil
}

func (s *DynamoDBStore) List(ctx context.Context, offset, limit int) ([]Profile, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})

	out := make([]Profile, 0, limit)
	skipped := 0
	for paginator.HasMorePages() && len(out) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, backendError(msgList, err)
		}
		items := page.Items
		if skip := offset - skipped; skip > 0 {
			if skip >= len(items) {
				skipped += len(items)
				continue
			}
			items = items[skip:]
			skipped = offset
		}
		for _, item := range items {
			if len(out) == limit {
				break
			}
			var doc document
			if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
				return nil, backendError(msgList, err)
			}
			out = append(out, *doc.toProfile())
		}
	}
	return out, nil
}

func (s *DynamoDBStore) Get(ctx context.Context, id string) (*Profile, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            uuidKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, backendError(msgGet, err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}
	var doc document
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, false, backendError(msgGet, err)
	}
	return doc.toProfile(), true, nil
}

func (s *DynamoDBStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	doc := toDocument(p)
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, backendError(msgCreate, err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(fieldUUID))).
		Build()
	if err != nil {
		return nil, backendError(msgCreate, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return nil, backendError(msgCreate, err)
	}
	return doc.toProfile(), nil
}

// buildUpdateExpression returns a SET expression over the provided fields,
// guarded so that a vanished item is not recreated. ok is false when there
// is nothing to write.
func buildUpdateExpression(params UpdateParams) (expression.Expression, bool, error) {
	fields := updateFields(params)
	if len(fields) == 0 {
		return expression.Expression{}, false, nil
	}
	var update expression.UpdateBuilder
	for _, f := range fields {
		update = update.Set(expression.Name(f.Name), expression.Value(f.Value))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(fieldUUID))).
		Build()
	if err != nil {
		return expression.Expression{}, false, err
	}
	return expr, true, nil
}

func (s *DynamoDBStore) Update(ctx context.Context, id string, params UpdateParams) error {
	expr, ok, err := buildUpdateExpression(params)
	if err != nil {
		return backendError(msgUpdate, err)
	}
	if !ok {
		return nil
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       uuidKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrNotFound
	}
	if err != nil {
		return backendError(msgUpdate, err)
	}
	return nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       uuidKey(id),
	})
	if err != nil {
		return backendError(msgDelete, err)
	}
	return nil
}

// Compile-time interface checks
var (
	_ Backend     = (*DynamoDBStore)(nil)
	_ DynamoDBAPI = (*dynamodb.Client)(nil)
)
