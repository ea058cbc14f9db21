// Package ddb decodes DynamoDB stream records of directory users.
package ddb

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// Event is a DynamoDB stream event as delivered to Lambda.
type Event = events.DynamoDBEvent

// EventRecord is a single stream record.
type EventRecord = events.DynamoDBEventRecord

// Operation is the kind of change a stream record carries.
type Operation string

const (
	OperationInsert Operation = "INSERT"
	OperationModify Operation = "MODIFY"
	OperationRemove Operation = "REMOVE"
)

// OperationOf returns the operation of a stream record.
func OperationOf(record EventRecord) Operation {
	return Operation(record.EventName)
}

// Record is a row of the directory table: one indexed object, keyed by its
// ID (pk) and the name of the index it belongs to (sk).
type Record struct {
	ID        string         `dynamodbav:"pk"`
	IndexName string         `dynamodbav:"sk"`
	Object    map[string]any `dynamodbav:"object,omitempty"`
}

// Validate reports whether the record carries both keys and, when
// requireObject is set, an object.
func (r Record) Validate(requireObject bool) error {
	if r.ID == "" {
		return errors.New("record has no id (pk)")
	}
	if r.IndexName == "" {
		return errors.Newf("record %s has no index name (sk)", r.ID)
	}
	if requireObject && r.Object == nil {
		return errors.Newf("record %s has no object", r.ID)
	}
	return nil
}

// AlgoliaObject returns a copy of the object with objectID set to the
// record ID.
func (r Record) AlgoliaObject() map[string]any {
	obj := make(map[string]any, len(r.Object)+1)
	for k, v := range r.Object {
		obj[k] = v
	}
	obj["objectID"] = r.ID
	return obj
}

// UnmarshalRecord converts an SDK attribute map into a Record.
func UnmarshalRecord(item map[string]types.AttributeValue) (Record, error) {
	var record Record
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return Record{}, errors.Wrap(err, "failed to unmarshal record")
	}
	return record, nil
}

// MarshalRecord converts a Record into an SDK attribute map for PutItem.
func MarshalRecord(record Record) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal record %s", record.ID)
	}
	return item, nil
}

// DecodeImage converts a stream image (or key set) into a Record.
func DecodeImage(image map[string]events.DynamoDBAttributeValue) (Record, error) {
	item, err := ConvertImage(image)
	if err != nil {
		return Record{}, err
	}
	return UnmarshalRecord(item)
}

// UnmarshalAttributeValueMap parses DynamoDB JSON such as
// {"pk": {"S": "u1"}} into an SDK attribute map.
func UnmarshalAttributeValueMap(data []byte) (map[string]types.AttributeValue, error) {
	var image map[string]events.DynamoDBAttributeValue
	if err := json.Unmarshal(data, &image); err != nil {
		return nil, errors.Wrap(err, "failed to parse attribute values")
	}
	return ConvertImage(image)
}

// ConvertImage converts stream attribute values into their SDK form.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	if image == nil {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		av, err := convert(v)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", k)
		}
		out[k] = av
	}
	return out, nil
}

func convert(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, 0, len(list))
		for i, item := range list {
			av, err := convert(item)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out = append(out, av)
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	case events.DataTypeMap:
		m, err := ConvertImage(v.Map())
		if err != nil {
			return nil, err
		}
		if m == nil {
			m = map[string]types.AttributeValue{}
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	default:
		return nil, errors.Newf("unsupported attribute type %d", v.DataType())
	}
}
