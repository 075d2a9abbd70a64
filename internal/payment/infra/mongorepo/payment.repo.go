package mongorepo

import (
	"context"
	"errors"
	"time"

	"github.com/k-code-yt/payment-verify/internal/domain/payment"
	pkgmongo "github.com/k-code-yt/payment-verify/pkg/db/mongo"
	pkgerrors "github.com/k-code-yt/payment-verify/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type PaymentRepo struct {
	coll *mongo.Collection
}

func NewPaymentRepo(db *mongo.Database) *PaymentRepo {
	return &PaymentRepo{
		coll: db.Collection(pkgmongo.DBCollectionName_Payments),
	}
}

// EnsureIndexes creates the unique txnId index and the createdAt sort index.
func (r *PaymentRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "txnId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("txnId_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	})
	if err != nil {
		return pkgerrors.NewStoreError("create indexes", err)
	}
	return nil
}

func (r *PaymentRepo) FindByTxnID(ctx context.Context, txnID string) (*payment.Payment, error) {
	p := &payment.Payment{}
	err := r.coll.FindOne(ctx, bson.M{"txnId": txnID}).Decode(p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.NewNotFoundError(txnID)
		}
		return nil, pkgerrors.NewStoreError("find payment", err)
	}
	return p, nil
}

func (r *PaymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pkgerrors.NewDuplicateKeyError(err)
		}
		return pkgerrors.NewStoreError("insert payment", err)
	}
	return nil
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, txnID string, status payment.Status, updatedAt time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"txnId": txnID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": updatedAt}},
	)
	if err != nil {
		return pkgerrors.NewStoreError("update payment status", err)
	}
	if res.MatchedCount == 0 {
		return pkgerrors.NewNotFoundError(txnID)
	}
	return nil
}

func (r *PaymentRepo) List(ctx context.Context) ([]*payment.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, pkgerrors.NewStoreError("list payments", err)
	}
	defer cur.Close(ctx)

	payments := []*payment.Payment{}
	if err := cur.All(ctx, &payments); err != nil {
		return nil, pkgerrors.NewStoreError("decode payments", err)
	}
	return payments, nil
}

func (r *PaymentRepo) Ping(ctx context.Context) error {
	if err := r.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return pkgerrors.NewStoreError("ping mongo", err)
	}
	return nil
}
