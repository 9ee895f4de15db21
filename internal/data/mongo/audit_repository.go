package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wallet-ledger/internal/domain/ledger"
	"github.com/wallet-ledger/internal/domain/shared"
)

// AuditCollectionName holds one document per archived ledger transaction.
const AuditCollectionName = "ledger_audit"

// auditDocument is the stored form of a ledger transaction.
type auditDocument struct {
	ledger.Transaction `bson:",inline"`
	ArchivedAt         time.Time `bson:"archived_at"`
}

// AuditRepository implements ledger.Archive on MongoDB.
type AuditRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

var _ ledger.Archive = (*AuditRepository)(nil)

func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		collection: db.Collection(AuditCollectionName),
		logger:     logger,
	}
}

// EnsureIndexes creates the unique transaction_id index and the per-wallet
// lookup indexes. It is safe to call on every start.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_transaction_id"),
		},
		{Keys: bson.D{{Key: "from_wallet", Value: 1}}, Options: options.Index().SetName("idx_from_wallet")},
		{Keys: bson.D{{Key: "to_wallet", Value: 1}}, Options: options.Index().SetName("idx_to_wallet")},
		{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_created_at")},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("failed to create ledger audit indexes", "error", err)
		return fmt.Errorf("failed to create ledger audit indexes: %w", err)
	}
	return nil
}

// Insert relies on the unique index rather than a read-then-write check so
// that two projector instances cannot both archive the same transaction.
func (r *AuditRepository) Insert(ctx context.Context, t *ledger.Transaction) error {
	doc := auditDocument{Transaction: *t, ArchivedAt: time.Now().UTC()}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateTransaction{ID: t.ID}
		}
		r.logger.Error("failed to archive ledger transaction", "transaction_id", t.ID, "error", err)
		return fmt.Errorf("failed to archive transaction %d: %w", t.ID, err)
	}
	return nil
}

func (r *AuditRepository) GetByID(ctx context.Context, id int64) (*ledger.Transaction, error) {
	var doc auditDocument
	err := r.collection.FindOne(ctx, bson.M{"transaction_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("failed to get archived transaction", "transaction_id", id, "error", err)
		return nil, fmt.Errorf("failed to get archived transaction %d: %w", id, err)
	}
	return &doc.Transaction, nil
}

func filterDocument(filter ledger.Filter) bson.M {
	if filter.UserID == 0 {
		return bson.M{}
	}
	return bson.M{"$or": bson.A{
		bson.M{"from_wallet": filter.UserID},
		bson.M{"to_wallet": filter.UserID},
	}}
}

// List returns archived transactions newest first, ties broken by ID.
func (r *AuditRepository) List(ctx context.Context, filter ledger.Filter) ([]*ledger.Transaction, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "transaction_id", Value: -1},
	})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit)).SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, filterDocument(filter), opts)
	if err != nil {
		r.logger.Error("failed to list archived transactions", "user_id", filter.UserID, "error", err)
		return nil, fmt.Errorf("failed to list archived transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []auditDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("failed to decode archived transactions", "user_id", filter.UserID, "error", err)
		return nil, fmt.Errorf("failed to decode archived transactions: %w", err)
	}

	out := make([]*ledger.Transaction, 0, len(docs))
	for i := range docs {
		out = append(out, &docs[i].Transaction)
	}
	return out, nil
}

func (r *AuditRepository) Count(ctx context.Context, filter ledger.Filter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, filterDocument(filter))
	if err != nil {
		r.logger.Error("failed to count archived transactions", "user_id", filter.UserID, "error", err)
		return 0, fmt.Errorf("failed to count archived transactions: %w", err)
	}
	return n, nil
}

// Totals sums completed deposits and withdrawals, the same figures the
// primary store reconciles against.
func (r *AuditRepository) Totals(ctx context.Context) (ledger.Totals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status": shared.TransactionStatusCompleted,
			"type": bson.M{"$in": bson.A{
				shared.TransactionTypeDeposit,
				shared.TransactionTypeWithdraw,
			}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("failed to aggregate archive totals", "error", err)
		return ledger.Totals{}, fmt.Errorf("failed to aggregate archive totals: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Type  shared.TransactionType `bson:"_id"`
		Total int64                  `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return ledger.Totals{}, fmt.Errorf("failed to decode archive totals: %w", err)
	}

	var totals ledger.Totals
	for _, row := range rows {
		switch row.Type {
		case shared.TransactionTypeDeposit:
			totals.Deposits = row.Total
		case shared.TransactionTypeWithdraw:
			totals.Withdrawals = row.Total
		}
	}
	return totals, nil
}
