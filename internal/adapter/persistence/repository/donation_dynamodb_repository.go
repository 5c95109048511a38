package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trust_donations/internal/domain/entities"
	"trust_donations/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	DonationsStatusCheckedAtIndex = "status-last_checked_at-index"

	paymentGuardPrefix = "payment#"
	donationCounterKey = "counter#donation"

	// Fixed width keeps last_checked_at lexicographically sortable in the GSI.
	timestampLayout = "2006-01-02T15:04:05.000000Z"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the repository.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type donationItem struct {
	OrderID          string `dynamodbav:"order_id"`
	ID               int64  `dynamodbav:"id"`
	PaymentID        string `dynamodbav:"payment_id,omitempty"`
	AttemptPaymentID string `dynamodbav:"attempt_payment_id,omitempty"`
	Signature        string `dynamodbav:"signature,omitempty"`
	Amount           string `dynamodbav:"amount"`
	Currency         string `dynamodbav:"currency"`
	DonorName        string `dynamodbav:"donor_name,omitempty"`
	DonorEmail       string `dynamodbav:"donor_email,omitempty"`
	DonorPhone       string `dynamodbav:"donor_phone,omitempty"`
	Method           string `dynamodbav:"method,omitempty"`
	Status           string `dynamodbav:"status"`
	CreatedAt        string `dynamodbav:"created_at"`
	UpdatedAt        string `dynamodbav:"updated_at"`
	LastCheckedAt    string `dynamodbav:"last_checked_at"`
	SweepAttempts    int    `dynamodbav:"sweep_attempts,omitempty"`
}

type paymentGuardItem struct {
	PK      string `dynamodbav:"pk"`
	OrderID string `dynamodbav:"order_id"`
}

// DonationDynamoRepository persists Donation entities in DynamoDB.
//
// Table requirements:
//   - donations: PK order_id (string)
//     GSI status-last_checked_at-index (PK status, SK last_checked_at)
//   - donation_keys: PK pk (string)
//
// payment_id uniqueness is kept with guard items (pk = payment#<id>) written in
// the same transaction as the donation change. The numeric id comes from an
// atomic counter item in the keys table.
type DonationDynamoRepository struct {
	ddb           DynamoDBAPI
	tableName     string
	keysTableName string
	now           func() time.Time
}

var _ interfaces.IDonationRepository = (*DonationDynamoRepository)(nil)

// NewDonationDynamoRepository builds the store over the configured tables.
func NewDonationDynamoRepository(ddb DynamoDBAPI, donationsTable, keysTable string) *DonationDynamoRepository {
	return &DonationDynamoRepository{
		ddb:           ddb,
		tableName:     donationsTable,
		keysTableName: keysTable,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (r *DonationDynamoRepository) Create(ctx context.Context, d entities.Donation) (entities.Donation, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return entities.Donation{}, fmt.Errorf("allocate donation id: %w", err)
	}
	d.ID = id
	now := r.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	if d.LastCheckedAt.IsZero() {
		d.LastCheckedAt = d.CreatedAt
	}

	av, err := attributevalue.MarshalMap(toDonationItem(d))
	if err != nil {
		return entities.Donation{}, err
	}

	if d.PaymentID == "" {
		_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(#order_id)"),
			ExpressionAttributeNames: map[string]string{
				"#order_id": "order_id",
			},
		})
		if isConditionalCheckFailed(err) {
			return entities.Donation{}, interfaces.ErrDonationExists
		}
		if err != nil {
			return entities.Donation{}, err
		}
		return fromDonationItem(toDonationItem(d)), nil
	}

	guard, err := attributevalue.MarshalMap(paymentGuardItem{PK: paymentGuardKey(d.PaymentID), OrderID: d.OrderID})
	if err != nil {
		return entities.Donation{}, err
	}
	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                av,
				ConditionExpression: aws.String("attribute_not_exists(#order_id)"),
				ExpressionAttributeNames: map[string]string{
					"#order_id": "order_id",
				},
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.keysTableName),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{
					"#pk": "pk",
				},
			}},
		},
	})
	if err != nil {
		return entities.Donation{}, cancellationError(err, interfaces.ErrDonationExists, interfaces.ErrPaymentIDConflict)
	}
	return fromDonationItem(toDonationItem(d)), nil
}

func (r *DonationDynamoRepository) GetByOrderID(ctx context.Context, orderID string) (entities.Donation, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Donation{}, err
	}
	if len(out.Item) == 0 {
		return entities.Donation{}, nil
	}

	var it donationItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Donation{}, err
	}
	return fromDonationItem(it), nil
}

// GetByPaymentID resolves the guard item to its owning order.
func (r *DonationDynamoRepository) GetByPaymentID(ctx context.Context, paymentID string) (entities.Donation, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.keysTableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: paymentGuardKey(paymentID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Donation{}, err
	}
	if len(out.Item) == 0 {
		return entities.Donation{}, nil
	}

	var guard paymentGuardItem
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return entities.Donation{}, err
	}
	if guard.OrderID == "" {
		return entities.Donation{}, nil
	}
	return r.GetByOrderID(ctx, guard.OrderID)
}

func (r *DonationDynamoRepository) Transition(ctx context.Context, t interfaces.DonationTransition) (entities.Donation, error) {
	if len(t.From) == 0 {
		return entities.Donation{}, fmt.Errorf("transition %s: no source states", t.OrderID)
	}
	update := buildTransitionUpdate(t, r.now())
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: t.OrderID},
	}

	if t.PaymentID == "" {
		out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.tableName),
			Key:                       key,
			ConditionExpression:       aws.String(update.condition),
			UpdateExpression:          aws.String(update.expression),
			ExpressionAttributeNames:  update.names,
			ExpressionAttributeValues: update.values,
			ReturnValues:              types.ReturnValueAllNew,
		})
		if isConditionalCheckFailed(err) {
			return entities.Donation{}, interfaces.ErrDonationStateConflict
		}
		if err != nil {
			return entities.Donation{}, err
		}
		var it donationItem
		if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
			return entities.Donation{}, err
		}
		return fromDonationItem(it), nil
	}

	guard, err := attributevalue.MarshalMap(paymentGuardItem{PK: paymentGuardKey(t.PaymentID), OrderID: t.OrderID})
	if err != nil {
		return entities.Donation{}, err
	}
	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       key,
				ConditionExpression:       aws.String(update.condition),
				UpdateExpression:          aws.String(update.expression),
				ExpressionAttributeNames:  update.names,
				ExpressionAttributeValues: update.values,
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.keysTableName),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(#pk) OR #order_id = :owner"),
				ExpressionAttributeNames: map[string]string{
					"#pk":       "pk",
					"#order_id": "order_id",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":owner": &types.AttributeValueMemberS{Value: t.OrderID},
				},
			}},
		},
	})
	if err != nil {
		return entities.Donation{}, cancellationError(err, interfaces.ErrDonationStateConflict, interfaces.ErrPaymentIDConflict)
	}
	// Transactions return no attributes; read back the committed state.
	return r.GetByOrderID(ctx, t.OrderID)
}

// ListStalePending returns up to limit PENDING donations whose sweep cursor is
// before the cutoff, least recently checked first.
func (r *DonationDynamoRepository) ListStalePending(ctx context.Context, checkedBefore time.Time, limit int) ([]entities.Donation, error) {
	if limit <= 0 {
		return nil, nil
	}
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(DonationsStatusCheckedAtIndex),
		KeyConditionExpression: aws.String("#status = :pending AND #last_checked_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status":          "status",
			"#last_checked_at": "last_checked_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(entities.DonationStatusPending)},
			":cutoff":  &types.AttributeValueMemberS{Value: formatTimestamp(checkedBefore)},
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Donation, 0, len(out.Items))
	for _, raw := range out.Items {
		var it donationItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromDonationItem(it))
	}
	return items, nil
}

// MarkChecked moves the sweep cursor of a PENDING donation to at and counts
// the visit. updated_at is left alone: nothing about the donation changed.
func (r *DonationDynamoRepository) MarkChecked(ctx context.Context, orderID string, at time.Time) error {
	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		ConditionExpression: aws.String("attribute_exists(#order_id) AND #status = :pending"),
		UpdateExpression:    aws.String("SET #last_checked_at = :at ADD #sweep_attempts :one"),
		ExpressionAttributeNames: map[string]string{
			"#order_id":        "order_id",
			"#status":          "status",
			"#last_checked_at": "last_checked_at",
			"#sweep_attempts":  "sweep_attempts",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(entities.DonationStatusPending)},
			":at":      &types.AttributeValueMemberS{Value: formatTimestamp(at)},
			":one":     &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if isConditionalCheckFailed(err) {
		return interfaces.ErrDonationStateConflict
	}
	return err
}

func (r *DonationDynamoRepository) nextID(ctx context.Context) (int64, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.keysTableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: donationCounterKey},
		},
		UpdateExpression: aws.String("ADD #seq :one"),
		ExpressionAttributeNames: map[string]string{
			"#seq": "seq",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	n, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("counter update returned no sequence")
	}
	return strconv.ParseInt(n.Value, 10, 64)
}

type transitionUpdate struct {
	condition  string
	expression string
	names      map[string]string
	values     map[string]types.AttributeValue
}

func buildTransitionUpdate(t interfaces.DonationTransition, now time.Time) transitionUpdate {
	names := map[string]string{
		"#order_id":   "order_id",
		"#status":     "status",
		"#updated_at": "updated_at",
	}
	values := map[string]types.AttributeValue{
		":to":  &types.AttributeValueMemberS{Value: string(t.To)},
		":now": &types.AttributeValueMemberS{Value: formatTimestamp(now)},
	}

	from := make([]string, 0, len(t.From))
	for i, s := range t.From {
		ph := ":from" + strconv.Itoa(i)
		from = append(from, ph)
		values[ph] = &types.AttributeValueMemberS{Value: string(s)}
	}

	sets := []string{"#status = :to", "#updated_at = :now"}
	set := func(attr, value string) {
		if value == "" {
			return
		}
		names["#"+attr] = attr
		values[":"+attr] = &types.AttributeValueMemberS{Value: value}
		sets = append(sets, fmt.Sprintf("#%s = :%s", attr, attr))
	}
	fill := func(attr, value string) {
		if value == "" {
			return
		}
		names["#"+attr] = attr
		values[":"+attr] = &types.AttributeValueMemberS{Value: value}
		sets = append(sets, fmt.Sprintf("#%s = if_not_exists(#%s, :%s)", attr, attr, attr))
	}
	set("payment_id", t.PaymentID)
	set("attempt_payment_id", t.AttemptPaymentID)
	set("signature", t.Signature)
	set("method", t.Method)
	fill("donor_email", t.DonorEmail)
	fill("donor_phone", t.DonorPhone)

	return transitionUpdate{
		condition:  fmt.Sprintf("attribute_exists(#order_id) AND #status IN (%s)", strings.Join(from, ", ")),
		expression: "SET " + strings.Join(sets, ", "),
		names:      names,
		values:     values,
	}
}

func toDonationItem(d entities.Donation) donationItem {
	return donationItem{
		OrderID:          d.OrderID,
		ID:               d.ID,
		PaymentID:        d.PaymentID,
		AttemptPaymentID: d.AttemptPaymentID,
		Signature:        d.Signature,
		Amount:           d.Amount.String(),
		Currency:         d.Currency,
		DonorName:        d.DonorName,
		DonorEmail:       d.DonorEmail,
		DonorPhone:       d.DonorPhone,
		Method:           d.Method,
		Status:           string(d.Status),
		CreatedAt:        formatTimestamp(d.CreatedAt),
		UpdatedAt:        formatTimestamp(d.UpdatedAt),
		LastCheckedAt:    formatTimestamp(d.CheckedAt()),
		SweepAttempts:    d.SweepAttempts,
	}
}

func fromDonationItem(it donationItem) entities.Donation {
	amount, _ := decimal.NewFromString(it.Amount)
	return entities.Donation{
		ID:               it.ID,
		OrderID:          it.OrderID,
		PaymentID:        it.PaymentID,
		AttemptPaymentID: it.AttemptPaymentID,
		Signature:        it.Signature,
		Amount:           amount,
		Currency:         it.Currency,
		DonorName:        it.DonorName,
		DonorEmail:       it.DonorEmail,
		DonorPhone:       it.DonorPhone,
		Method:           it.Method,
		Status:           entities.DonationStatus(it.Status),
		CreatedAt:        parseTimestamp(it.CreatedAt),
		UpdatedAt:        parseTimestamp(it.UpdatedAt),
		LastCheckedAt:    parseTimestamp(it.LastCheckedAt),
		SweepAttempts:    it.SweepAttempts,
	}
}

func paymentGuardKey(paymentID string) string {
	return paymentGuardPrefix + paymentID
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
