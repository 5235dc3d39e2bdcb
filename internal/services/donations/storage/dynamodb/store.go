// Package dynamodb provides a DynamoDB-backed donation ledger.
//
// Every record lives in one table keyed by the string attribute pk. A
// donation is stored as donation#<id>; its transaction id is claimed by a
// txn#<transaction id> guard item written in the same transaction, so the
// uniqueness check and the insert commit or fail together.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/louisbranch/donations/internal/services/donations/ledger"
	"github.com/louisbranch/donations/internal/services/donations/storage"
)

const (
	keyAttr         = "pk"
	donationPrefix  = "donation#"
	txnPrefix       = "txn#"
	kindDonation    = "donation"
	kindTransaction = "transaction"
)

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements storage.DonationStore over DynamoDB.
type Store struct {
	client    Client
	tableName string
}

// New builds a store over an existing client.
func New(client Client, tableName string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("DynamoDB client not initialized")
	}
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return nil, fmt.Errorf("DynamoDB table name is required")
	}
	return &Store{client: client, tableName: tableName}, nil
}

// Open loads the default AWS configuration and builds a store. A non-empty
// endpoint overrides the service endpoint, for local DynamoDB.
func Open(ctx context.Context, tableName, endpoint string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint = strings.TrimSpace(endpoint)
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client, tableName)
}

// donationItem is the persisted shape of a donation.
type donationItem struct {
	PK            string `dynamodbav:"pk"`
	Kind          string `dynamodbav:"kind"`
	ID            string `dynamodbav:"id"`
	Amount        int64  `dynamodbav:"amount"`
	TransactionID string `dynamodbav:"transaction_id"`
	Status        string `dynamodbav:"status"`
	PaymentMethod string `dynamodbav:"payment_method"`
	DonorName     string `dynamodbav:"donor_name,omitempty"`
	DonorEmail    string `dynamodbav:"donor_email,omitempty"`
	DonorPhone    string `dynamodbav:"donor_phone,omitempty"`
	Purpose       string `dynamodbav:"purpose,omitempty"`
	Message       string `dynamodbav:"message,omitempty"`
	Anonymous     bool   `dynamodbav:"anonymous"`
	OwnerUserID   string `dynamodbav:"owner_user_id,omitempty"`
	Version       int64  `dynamodbav:"version"`
	CreatedAt     int64  `dynamodbav:"created_at"`
	UpdatedAt     int64  `dynamodbav:"updated_at"`
}

// transactionItem claims a transaction id for one donation.
type transactionItem struct {
	PK         string `dynamodbav:"pk"`
	Kind       string `dynamodbav:"kind"`
	DonationID string `dynamodbav:"donation_id"`
	CreatedAt  int64  `dynamodbav:"created_at"`
}

func toItem(d ledger.Donation) donationItem {
	item := donationItem{
		PK:            donationPrefix + d.ID,
		Kind:          kindDonation,
		ID:            d.ID,
		Amount:        d.Amount,
		TransactionID: d.TransactionID,
		Status:        string(d.Status),
		PaymentMethod: string(d.PaymentMethod),
		Purpose:       d.Purpose,
		Message:       d.Message,
		Anonymous:     d.Anonymous,
		OwnerUserID:   d.OwnerUserID,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt.UTC().UnixMilli(),
		UpdatedAt:     d.UpdatedAt.UTC().UnixMilli(),
	}
	if d.Donor != nil {
		donor := d.Donor.Normalize()
		item.DonorName, item.DonorEmail, item.DonorPhone = donor.Name, donor.Email, donor.Phone
	}
	return item
}

func (item donationItem) toDonation() ledger.Donation {
	d := ledger.Donation{
		ID:            item.ID,
		Amount:        item.Amount,
		TransactionID: item.TransactionID,
		Status:        ledger.Status(item.Status),
		PaymentMethod: ledger.PaymentMethod(item.PaymentMethod),
		Purpose:       item.Purpose,
		Message:       item.Message,
		Anonymous:     item.Anonymous,
		OwnerUserID:   item.OwnerUserID,
		Version:       item.Version,
		CreatedAt:     time.UnixMilli(item.CreatedAt).UTC(),
		UpdatedAt:     time.UnixMilli(item.UpdatedAt).UTC(),
	}
	donor := ledger.Donor{Name: item.DonorName, Email: item.DonorEmail, Phone: item.DonorPhone}
	if !donor.Empty() {
		d.Donor = &donor
	}
	return d
}

func donationKey(id string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		keyAttr: &dynamodbtypes.AttributeValueMemberS{Value: donationPrefix + id},
	}
}

// CreateDonation writes the donation and its transaction guard in one
// transaction, each conditioned on the key not existing yet.
func (s *Store) CreateDonation(ctx context.Context, d ledger.Donation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d.TransactionID = strings.TrimSpace(d.TransactionID)
	d.Purpose = strings.TrimSpace(d.Purpose)
	d.Message = strings.TrimSpace(d.Message)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	if d.Version <= 0 {
		d.Version = 1
	}

	donation, err := attributevalue.MarshalMap(toItem(d))
	if err != nil {
		return fmt.Errorf("marshal donation: %w", err)
	}
	guard, err := attributevalue.MarshalMap(transactionItem{
		PK:         txnPrefix + d.TransactionID,
		Kind:       kindTransaction,
		DonationID: d.ID,
		CreatedAt:  d.CreatedAt.UTC().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal transaction guard: %w", err)
	}

	notExists := aws.String("attribute_not_exists(" + keyAttr + ")")
	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []dynamodbtypes.TransactWriteItem{
			{Put: &dynamodbtypes.Put{TableName: aws.String(s.tableName), Item: guard, ConditionExpression: notExists}},
			{Put: &dynamodbtypes.Put{TableName: aws.String(s.tableName), Item: donation, ConditionExpression: notExists}},
		},
	})
	if err != nil {
		if guardConflict(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// guardConflict reports whether the transaction guard put, the first item of
// the write, failed its condition. A donation id collision alone is not a
// duplicate transaction.
func guardConflict(err error) bool {
	var canceled *dynamodbtypes.TransactionCanceledException
	if !errors.As(err, &canceled) || len(canceled.CancellationReasons) == 0 {
		return false
	}
	return aws.ToString(canceled.CancellationReasons[0].Code) == "ConditionalCheckFailed"
}

// GetDonation returns one donation by id.
func (s *Store) GetDonation(ctx context.Context, id string) (ledger.Donation, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Donation{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ledger.Donation{}, storage.ErrNotFound
	}
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            donationKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return ledger.Donation{}, fmt.Errorf("get donation: %w", err)
	}
	if result.Item == nil {
		return ledger.Donation{}, storage.ErrNotFound
	}
	var item donationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return ledger.Donation{}, fmt.Errorf("unmarshal donation: %w", err)
	}
	return item.toDonation(), nil
}

// TransitionDonation moves a pending donation to status with a conditional
// update.
func (s *Store) TransitionDonation(ctx context.Context, id string, status ledger.Status, at time.Time) (ledger.Donation, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Donation{}, err
	}
	if !ledger.CanTransition(ledger.StatusPending, status) {
		return ledger.Donation{}, storage.ErrInvalidTransition
	}
	if at.IsZero() {
		at = time.Now()
	}
	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 donationKey(id),
		ConditionExpression: aws.String("attribute_exists(" + keyAttr + ") AND #status = :from"),
		UpdateExpression:    aws.String("SET #status = :to, updated_at = :at ADD version :one"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":from": &dynamodbtypes.AttributeValueMemberS{Value: string(ledger.StatusPending)},
			":to":   &dynamodbtypes.AttributeValueMemberS{Value: string(status)},
			":at":   &dynamodbtypes.AttributeValueMemberN{Value: fmt.Sprint(at.UTC().UnixMilli())},
			":one":  &dynamodbtypes.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: dynamodbtypes.ReturnValueAllNew,
	})
	if err != nil {
		var conditional *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditional) {
			if _, getErr := s.GetDonation(ctx, id); errors.Is(getErr, storage.ErrNotFound) {
				return ledger.Donation{}, storage.ErrNotFound
			}
			return ledger.Donation{}, storage.ErrInvalidTransition
		}
		return ledger.Donation{}, fmt.Errorf("transition donation: %w", err)
	}
	var item donationItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &item); err != nil {
		return ledger.Donation{}, fmt.Errorf("unmarshal donation: %w", err)
	}
	return item.toDonation(), nil
}

// scanDonations reads every donation item matching filter, newest first.
func (s *Store) scanDonations(ctx context.Context, filter storage.DonationFilter) ([]ledger.Donation, error) {
	expr := "begins_with(" + keyAttr + ", :prefix)"
	names := map[string]string{}
	values := map[string]dynamodbtypes.AttributeValue{
		":prefix": &dynamodbtypes.AttributeValueMemberS{Value: donationPrefix},
	}
	if filter.Status != "" {
		expr += " AND #status = :status"
		names["#status"] = "status"
		values[":status"] = &dynamodbtypes.AttributeValueMemberS{Value: string(filter.Status)}
	}
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          aws.String(expr),
		ExpressionAttributeValues: values,
		ConsistentRead:            aws.Bool(true),
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	donations := []ledger.Donation{}
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan donations: %w", err)
		}
		for _, raw := range result.Items {
			var item donationItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshal donation: %w", err)
			}
			if item.Kind != kindDonation {
				continue
			}
			d := item.toDonation()
			if filter.Status != "" && d.Status != filter.Status {
				continue
			}
			if !ledger.InRange(d.CreatedAt, filter.Start, filter.End) {
				continue
			}
			donations = append(donations, d)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sort.Slice(donations, func(i, j int) bool {
		if !donations[i].CreatedAt.Equal(donations[j].CreatedAt) {
			return donations[i].CreatedAt.After(donations[j].CreatedAt)
		}
		return donations[i].ID > donations[j].ID
	})
	return donations, nil
}

// ListDonations returns one offset page, newest first.
func (s *Store) ListDonations(ctx context.Context, filter storage.DonationFilter, limit, offset int) (storage.DonationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.DonationPage{}, err
	}
	if limit <= 0 {
		return storage.DonationPage{}, fmt.Errorf("limit must be greater than zero")
	}
	all, err := s.scanDonations(ctx, filter)
	if err != nil {
		return storage.DonationPage{}, err
	}
	page := storage.DonationPage{Donations: []ledger.Donation{}, Total: int64(len(all))}
	if offset < 0 {
		offset = 0
	}
	if offset < len(all) {
		end := min(offset+limit, len(all))
		page.Donations = all[offset:end]
	}
	return page, nil
}

// ExportDonations returns every matching donation, newest first.
func (s *Store) ExportDonations(ctx context.Context, filter storage.DonationFilter) ([]ledger.Donation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scanDonations(ctx, filter)
}

// DonationStatistics aggregates a full scan in memory.
func (s *Store) DonationStatistics(ctx context.Context) (ledger.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Statistics{}, err
	}
	all, err := s.scanDonations(ctx, storage.DonationFilter{})
	if err != nil {
		return ledger.Statistics{}, err
	}
	return ledger.Summarize(all), nil
}

var _ storage.DonationStore = (*Store)(nil)
