// Package dynamo provides a DynamoDB-backed implementation of
// storage.Storage.
//
// Table layout (single table, hash key "pk"):
//
//	student#<roll_no>  the student record
//	email#<email>      a guard item holding the roll number that owns email
//
// DynamoDB has no unique secondary indexes, so email uniqueness is enforced
// by writing the guard item in the same transaction as the record, each with
// an attribute_not_exists(pk) condition.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

const (
	keyAttr       = "pk"
	studentPrefix = "student#"
	emailPrefix   = "email#"

	condNotExists = "attribute_not_exists(pk)"
	condExists    = "attribute_exists(pk)"

	tableWaitTimeout = 2 * time.Minute
)

// API is the subset of *dynamodb.Client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// studentItem is the stored shape of a record.
type studentItem struct {
	PK string `dynamodbav:"pk"`
	types.Student
}

// emailGuard reserves an email for one roll number.
type emailGuard struct {
	PK     string `dynamodbav:"pk"`
	RollNo int64  `dynamodbav:"roll_no"`
}

// Dynamo is the concrete implementation of storage.Storage.
type Dynamo struct {
	client API
	table  string
}

// New builds a client from cfg. Static credentials are used when both keys
// are set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg config.DynamoDB) (*Dynamo, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("dynamo.New: load aws config: %w", err)
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Table), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, table string) *Dynamo {
	return &Dynamo{client: client, table: table}
}

func studentKey(rollNo int64) string { return studentPrefix + strconv.FormatInt(rollNo, 10) }
func emailKey(email string) string   { return emailPrefix + email }

func keyOf(pk string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{keyAttr: &ddbtypes.AttributeValueMemberS{Value: pk}}
}

// Migrate creates the table when it does not exist and waits for it to
// become active.
func (d *Dynamo) Migrate(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err == nil {
		return nil
	}
	var notFound *ddbtypes.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("Migrate: describe table: %w", err)
	}

	_, err = d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(d.table),
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String(keyAttr), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String(keyAttr), KeyType: ddbtypes.KeyTypeHash},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("Migrate: create table: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(d.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)}, tableWaitTimeout); err != nil {
		return fmt.Errorf("Migrate: wait for table: %w", err)
	}
	return nil
}

// Close is a no-op; the AWS client holds no resources that need releasing.
func (d *Dynamo) Close() error { return nil }

func (d *Dynamo) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	student.ID = uuid.NewString()

	record, err := d.putStudent(student, condNotExists)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}
	guard, err := d.putGuard(student, condNotExists)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}

	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []ddbtypes.TransactWriteItem{record, guard},
	})
	if err != nil {
		if failed := conditionFailures(err); len(failed) > 0 {
			return types.Student{}, fmt.Errorf("CreateStudent: %w", storage.ErrDuplicate)
		}
		return types.Student{}, fmt.Errorf("CreateStudent: transact: %w", err)
	}
	return student, nil
}

func (d *Dynamo) GetStudentByRollNo(ctx context.Context, rollNo int64) (types.Student, error) {
	raw, err := d.get(ctx, studentKey(rollNo))
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByRollNo: %w", err)
	}
	if raw == nil {
		return types.Student{}, fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}

	var item studentItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByRollNo: unmarshal: %w", err)
	}
	return item.Student, nil
}

func (d *Dynamo) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	raw, err := d.get(ctx, emailKey(email))
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByEmail: %w", err)
	}
	if raw == nil {
		return types.Student{}, fmt.Errorf("no student found with email %q: %w", email, storage.ErrNotFound)
	}

	var guard emailGuard
	if err := attributevalue.UnmarshalMap(raw, &guard); err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByEmail: unmarshal: %w", err)
	}
	return d.GetStudentByRollNo(ctx, guard.RollNo)
}

// GetStudents scans every student item, following pagination.
func (d *Dynamo) GetStudents(ctx context.Context) ([]types.Student, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName:        aws.String(d.table),
		FilterExpression: aws.String("begins_with(pk, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":prefix": &ddbtypes.AttributeValueMemberS{Value: studentPrefix},
		},
		ConsistentRead: aws.Bool(true),
	})

	students := make([]types.Student, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan: %w", err)
		}

		var items []studentItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("GetStudents: unmarshal: %w", err)
		}
		for _, item := range items {
			students = append(students, item.Student)
		}
	}
	return students, nil
}

// UpdateStudentByRollNo rewrites the record, moving it and its email guard
// when the roll number or email changes. All writes go in one transaction.
func (d *Dynamo) UpdateStudentByRollNo(ctx context.Context, rollNo int64, student types.Student) (types.Student, error) {
	current, err := d.GetStudentByRollNo(ctx, rollNo)
	if err != nil {
		return types.Student{}, err
	}
	student.ID = current.ID

	var (
		items []ddbtypes.TransactWriteItem
		// notFoundAt marks the item whose condition only fails if the
		// record vanished between the read above and this write.
		notFoundAt int
	)

	if student.RollNo == rollNo {
		record, err := d.putStudent(student, condExists)
		if err != nil {
			return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", err)
		}
		notFoundAt = len(items)
		items = append(items, record)
	} else {
		notFoundAt = len(items)
		items = append(items, d.deleteItem(studentKey(rollNo), condExists))
		record, err := d.putStudent(student, condNotExists)
		if err != nil {
			return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", err)
		}
		items = append(items, record)
	}

	switch {
	case student.Email != current.Email:
		items = append(items, d.deleteItem(emailKey(current.Email), ""))
		guard, err := d.putGuard(student, condNotExists)
		if err != nil {
			return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", err)
		}
		items = append(items, guard)
	case student.RollNo != rollNo:
		// Same email, new owner key.
		guard, err := d.putGuard(student, "")
		if err != nil {
			return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", err)
		}
		items = append(items, guard)
	}

	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		failed := conditionFailures(err)
		if len(failed) == 0 {
			return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: transact: %w", err)
		}
		if failed[notFoundAt] {
			return types.Student{}, fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", storage.ErrDuplicate)
	}
	return student, nil
}

func (d *Dynamo) DeleteStudentByRollNo(ctx context.Context, rollNo int64) error {
	current, err := d.GetStudentByRollNo(ctx, rollNo)
	if err != nil {
		return err
	}

	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []ddbtypes.TransactWriteItem{
			d.deleteItem(studentKey(rollNo), condExists),
			d.deleteItem(emailKey(current.Email), ""),
		},
	})
	if err != nil {
		if failed := conditionFailures(err); len(failed) > 0 {
			return fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
		}
		return fmt.Errorf("DeleteStudentByRollNo: transact: %w", err)
	}
	return nil
}

// get returns the item stored under pk, or nil if there is none.
func (d *Dynamo) get(ctx context.Context, pk string) (map[string]ddbtypes.AttributeValue, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            keyOf(pk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

func (d *Dynamo) putStudent(student types.Student, cond string) (ddbtypes.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(studentItem{PK: studentKey(student.RollNo), Student: student})
	if err != nil {
		return ddbtypes.TransactWriteItem{}, fmt.Errorf("marshal student: %w", err)
	}
	return d.put(item, cond), nil
}

func (d *Dynamo) putGuard(student types.Student, cond string) (ddbtypes.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(emailGuard{PK: emailKey(student.Email), RollNo: student.RollNo})
	if err != nil {
		return ddbtypes.TransactWriteItem{}, fmt.Errorf("marshal email guard: %w", err)
	}
	return d.put(item, cond), nil
}

func (d *Dynamo) put(item map[string]ddbtypes.AttributeValue, cond string) ddbtypes.TransactWriteItem {
	put := &ddbtypes.Put{TableName: aws.String(d.table), Item: item}
	if cond != "" {
		put.ConditionExpression = aws.String(cond)
	}
	return ddbtypes.TransactWriteItem{Put: put}
}

func (d *Dynamo) deleteItem(pk, cond string) ddbtypes.TransactWriteItem {
	del := &ddbtypes.Delete{TableName: aws.String(d.table), Key: keyOf(pk)}
	if cond != "" {
		del.ConditionExpression = aws.String(cond)
	}
	return ddbtypes.TransactWriteItem{Delete: del}
}

// conditionFailures returns the indexes of transaction items whose condition
// check failed, or nil if err is not a condition-driven cancellation.
func conditionFailures(err error) map[int]bool {
	var canceled *ddbtypes.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return nil
	}
	failed := make(map[int]bool)
	for i, reason := range canceled.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			failed[i] = true
		}
	}
	return failed
}
