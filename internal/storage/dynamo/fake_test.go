package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory stand-in for the subset of DynamoDB the store
// uses. It understands the two condition expressions the store writes and the
// begins_with filter used by GetStudents.
type fakeDynamo struct {
	mu        sync.Mutex
	tableUp   bool
	items     map[string]map[string]ddbtypes.AttributeValue
	creates   int
	transacts int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]ddbtypes.AttributeValue)}
}

func pkOf(m map[string]ddbtypes.AttributeValue) string {
	if s, ok := m[keyAttr].(*ddbtypes.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[pkOf(in.Key)]}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := ""
	if v, ok := in.ExpressionAttributeValues[":prefix"].(*ddbtypes.AttributeValueMemberS); ok {
		prefix = v.Value
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &dynamodb.ScanOutput{}
	for _, k := range keys {
		out.Items = append(out.Items, f.items[k])
	}
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transacts++

	reasons := make([]ddbtypes.CancellationReason, len(in.TransactItems))
	failed := false
	seen := make(map[string]bool)

	for i, item := range in.TransactItems {
		var pk, cond string
		switch {
		case item.Put != nil:
			pk, cond = pkOf(item.Put.Item), aws.ToString(item.Put.ConditionExpression)
		case item.Delete != nil:
			pk, cond = pkOf(item.Delete.Key), aws.ToString(item.Delete.ConditionExpression)
		default:
			return nil, fmt.Errorf("fake: unsupported transact item %d", i)
		}
		if seen[pk] {
			return nil, fmt.Errorf("fake: item %q touched twice in one transaction", pk)
		}
		seen[pk] = true

		_, exists := f.items[pk]
		ok := true
		switch cond {
		case "":
		case condExists:
			ok = exists
		case condNotExists:
			ok = !exists
		default:
			return nil, fmt.Errorf("fake: unsupported condition %q", cond)
		}

		code := "None"
		if !ok {
			code = "ConditionalCheckFailed"
			failed = true
		}
		reasons[i] = ddbtypes.CancellationReason{Code: aws.String(code)}
	}

	if failed {
		return nil, &ddbtypes.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, item := range in.TransactItems {
		if item.Put != nil {
			f.items[pkOf(item.Put.Item)] = item.Put.Item
		} else {
			delete(f.items, pkOf(item.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tableUp {
		return nil, &ddbtypes.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &ddbtypes.TableDescription{
		TableName:   in.TableName,
		TableStatus: ddbtypes.TableStatusActive,
	}}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, _ *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tableUp {
		return nil, &ddbtypes.ResourceInUseException{Message: aws.String("table exists")}
	}
	f.tableUp = true
	f.creates++
	return &dynamodb.CreateTableOutput{}, nil
}
