package db

import (
	"context"
	"fmt"
	"time"

	"ai_news_spider/internal/config"
	"ai_news_spider/internal/models"
	urlqueue "ai_news_spider/internal/url_queue"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB persists accepted articles. Failures here are logged by the
// caller and never abort a scan run.
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	articles *mongo.Collection
}

func NewMongoDB(cfg config.DBConfig) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("can't ping MongoDB: %v", err)
	}

	database := client.Database(cfg.Database)

	d := &MongoDB{
		client:   client,
		database: database,
		articles: database.Collection(cfg.Collections.Articles),
	}

	if err := d.createIndexes(); err != nil {
		return nil, fmt.Errorf("can't create indices: %v", err)
	}

	return d, nil
}

func (d *MongoDB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "published_at", Value: -1}},
	}
	_, err := d.articles.Indexes().CreateOne(ctx, indexModel)
	return err
}

// SaveArticle upserts by normalized URL, so re-scanning the same article
// updates in place instead of duplicating.
func (d *MongoDB) SaveArticle(ctx context.Context, article *models.Article) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	record := toRecord(article)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": record.NormalizedURL}

	var updateDoc bson.M
	data, err := bson.Marshal(record)
	if err != nil {
		return err
	}
	if err := bson.Unmarshal(data, &updateDoc); err != nil {
		return err
	}
	delete(updateDoc, "_id")
	delete(updateDoc, "first_saved")

	update := bson.M{
		"$set":         updateDoc,
		"$setOnInsert": bson.M{"first_saved": record.FirstSaved},
	}

	_, err = d.articles.UpdateOne(ctx, filter, update, opts)
	return err
}

// ArticleExists reports whether a URL was accepted in a previous run.
// Used to seed cross-run deduplication.
func (d *MongoDB) ArticleExists(ctx context.Context, articleURL string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := d.articles.FindOne(ctx, bson.M{"_id": urlqueue.NormalizeURL(articleURL)}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListArticles returns saved records, newest first.
func (d *MongoDB) ListArticles(ctx context.Context, limit int64) ([]models.ArticleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := d.articles.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.ArticleRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (d *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func toRecord(article *models.Article) *models.ArticleRecord {
	now := time.Now().Unix()
	record := &models.ArticleRecord{
		NormalizedURL:   urlqueue.NormalizeURL(article.URL),
		URL:             article.URL,
		Title:           article.Title,
		SourceSite:      article.SourceSite,
		PublishedAt:     article.PublishedAt,
		Content:         article.Content,
		ContentLength:   len(article.Content),
		ConfidenceScore: article.Verdict.ConfidenceScore,
		MatchedTerms:    article.Verdict.MatchedTerms,
		Reason:          article.Verdict.Reason,
		FirstSaved:      now,
		LastSaved:       now,
	}
	if article.Summary != nil {
		record.Summary = article.Summary.Summary
		record.KeyPoints = article.Summary.KeyPoints
		record.BusinessValue = article.Summary.BusinessValue
	}
	return record
}
