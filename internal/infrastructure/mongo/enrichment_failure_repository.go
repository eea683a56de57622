package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/review-relay/internal/review/application"
	"github.com/sngm3741/review-relay/internal/review/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnrichmentFailureRepository は CRM への付帯処理 (カスタムフィールド・ノート・タグ) の失敗を記録する台帳。
type EnrichmentFailureRepository struct {
	collection *mongo.Collection
}

// NewEnrichmentFailureRepository は失敗台帳コレクションを束縛したリポジトリを生成する。
func NewEnrichmentFailureRepository(db *mongo.Database, collectionName string) *EnrichmentFailureRepository {
	return &EnrichmentFailureRepository{collection: db.Collection(collectionName)}
}

var _ application.FailureRepository = (*EnrichmentFailureRepository)(nil)

// Record は失敗 1 件を未解決状態で保存する。
func (r *EnrichmentFailureRepository) Record(ctx context.Context, failure domain.EnrichmentFailure) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := enrichmentFailureToDocument(failure)
	doc.Resolved = false
	doc.ResolvedAt = nil
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert enrichment failure: %w", err)
	}
	return nil
}

// Find は手順・解決状態で絞り込み、新しい順に返す。
func (r *EnrichmentFailureRepository) Find(ctx context.Context, filter application.FailureFilter, limit int) ([]domain.EnrichmentFailure, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildFailureFilter(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []EnrichmentFailureDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]domain.EnrichmentFailure, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toDomain())
	}
	return result, nil
}

// Resolve は管理者が対応済みにした失敗へ解決者と日時を記録する。
func (r *EnrichmentFailureRepository) Resolve(ctx context.Context, id, resolvedBy string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"resolved":   true,
		"resolvedBy": resolvedBy,
		"resolvedAt": at,
	}}
	result, err := r.collection.UpdateByID(ctx, strings.TrimSpace(id), update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return application.ErrFailureNotFound
	}
	return nil
}

func buildFailureFilter(filter application.FailureFilter) bson.M {
	mongoFilter := bson.M{}
	if step := strings.TrimSpace(string(filter.Step)); step != "" {
		mongoFilter["step"] = step
	}
	if filter.Resolved != nil {
		mongoFilter["resolved"] = *filter.Resolved
	}
	return mongoFilter
}
