package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/typeahead/directory"
	"github.com/letmevibethatforyou/typeahead/internal/ddb"
	"github.com/segmentio/ksuid"
)

type mockPutter struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (m *mockPutter) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, params)
	return &dynamodb.PutItemOutput{}, nil
}

func TestGenerateUser(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 50; i++ {
		u := generateUser(r, "corp.test")

		if _, err := ksuid.Parse(u.ID); err != nil {
			t.Fatalf("Expected a ksuid, got %q: %v", u.ID, err)
		}
		if !strings.Contains(u.Name, " ") {
			t.Errorf("Expected first and last name, got %q", u.Name)
		}
		if !strings.HasSuffix(u.Email, "@corp.test") {
			t.Errorf("Unexpected email %q", u.Email)
		}
		if len(u.Groups) > 2 {
			t.Errorf("Expected at most 2 groups, got %v", u.Groups)
		}
		seen := map[string]bool{}
		for _, g := range u.Groups {
			if seen[g] {
				t.Errorf("Duplicate group %q in %v", g, u.Groups)
			}
			seen[g] = true
		}
	}
}

func TestPutUser(t *testing.T) {
	user := directory.User{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", Groups: []string{"eng"}}
	client := &mockPutter{}

	if err := putUser(context.Background(), client, "Directory", "users", user); err != nil {
		t.Fatalf("putUser failed: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("Expected 1 PutItem call, got %d", len(client.inputs))
	}

	in := client.inputs[0]
	if aws.ToString(in.TableName) != "Directory" {
		t.Errorf("Unexpected table %q", aws.ToString(in.TableName))
	}

	record, err := ddb.UnmarshalRecord(in.Item)
	if err != nil {
		t.Fatalf("UnmarshalRecord failed: %v", err)
	}
	if record.ID != "u1" || record.IndexName != "users" || record.Object["name"] != "Ada Lovelace" {
		t.Errorf("Unexpected record %+v", record)
	}

	client.err = errors.New("throttled")
	if err := putUser(context.Background(), client, "Directory", "users", user); err == nil {
		t.Error("Expected PutItem error to be returned")
	}
}

func TestWriteUsers(t *testing.T) {
	users := []directory.User{
		{ID: "u1", Name: "Ada Lovelace"},
		{ID: "u2", Name: "Alan Turing", Disabled: true},
	}

	var buf bytes.Buffer
	if err := writeUsers(&buf, users); err != nil {
		t.Fatalf("writeUsers failed: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var got []directory.User
	for scanner.Scan() {
		var u directory.User
		if err := json.Unmarshal(scanner.Bytes(), &u); err != nil {
			t.Fatalf("Invalid JSON line %q: %v", scanner.Text(), err)
		}
		got = append(got, u)
	}

	if len(got) != 2 || got[0].ID != "u1" || got[1].ID != "u2" || !got[1].Disabled {
		t.Errorf("Unexpected users %+v", got)
	}
}
