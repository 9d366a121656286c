package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const QuestionsCollection = "questions"

type mongoQuestionRepository struct {
	col *mongo.Collection
}

// NewMongoQuestionRepository ensures the chapter/title index and returns the repo.
func NewMongoQuestionRepository(ctx context.Context, db *mongo.Database) (QuestionRepository, error) {
	col := db.Collection(QuestionsCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chapter", Value: 1}, {Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return nil, wrapStoreErr("mongoQuestionRepository.indexes", err)
	}
	return &mongoQuestionRepository{col: col}, nil
}

func normalizeTags(q *model.Question) {
	if q.Tags == nil {
		q.Tags = []string{}
	}
}

func (r *mongoQuestionRepository) Create(ctx context.Context, q *model.Question) error {
	normalizeTags(q)
	if _, err := r.col.InsertOne(ctx, q); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("question with this id already exists: %w", common.ErrConflict)
		}
		return wrapStoreErr("mongoQuestionRepository.Create", err)
	}
	return nil
}

func (r *mongoQuestionRepository) findOne(ctx context.Context, op string, filter any, opts ...*options.FindOneOptions) (*model.Question, error) {
	var q model.Question
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, wrapStoreErr(op, err)
	}
	normalizeTags(&q)
	return &q, nil
}

func (r *mongoQuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	return r.findOne(ctx, "mongoQuestionRepository.FindByID", bson.M{"_id": id})
}

func (r *mongoQuestionRepository) FindByChapterAndTitle(ctx context.Context, chapter, title string) (*model.Question, error) {
	return r.findOne(ctx, "mongoQuestionRepository.FindByChapterAndTitle", bson.M{"chapter": chapter, "title": title})
}

var chapterTitleSort = bson.D{{Key: "chapter", Value: 1}, {Key: "title", Value: 1}}

func (r *mongoQuestionRepository) List(ctx context.Context, order ListOrder) ([]model.Question, error) {
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	if order == OrderChapterTitle {
		sort = chapterTitleSort
	}
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, wrapStoreErr("mongoQuestionRepository.List find", err)
	}
	defer cur.Close(ctx)

	questions := []model.Question{}
	if err := cur.All(ctx, &questions); err != nil {
		return nil, wrapStoreErr("mongoQuestionRepository.List decode", err)
	}
	for i := range questions {
		normalizeTags(&questions[i])
	}
	return questions, nil
}

func (r *mongoQuestionRepository) FindFirstByTitle(ctx context.Context, fragment string) (*model.Question, error) {
	filter := bson.M{"title": bson.M{"$regex": regexp.QuoteMeta(fragment), "$options": "i"}}
	return r.findOne(ctx, "mongoQuestionRepository.FindFirstByTitle", filter, options.FindOne().SetSort(chapterTitleSort))
}

func (r *mongoQuestionRepository) Update(ctx context.Context, q *model.Question) error {
	normalizeTags(q)
	set := bson.M{
		"chapter":     q.Chapter,
		"title":       q.Title,
		"code":        q.Code,
		"output":      q.Output,
		"difficulty":  q.Difficulty,
		"language":    q.Language,
		"explanation": q.Explanation,
		"tags":        q.Tags,
		"fileName":    q.FileName,
		"updatedAt":   q.UpdatedAt,
	}
	res, err := r.col.UpdateByID(ctx, q.ID, bson.M{"$set": set})
	if err != nil {
		return wrapStoreErr("mongoQuestionRepository.Update", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoQuestionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapStoreErr("mongoQuestionRepository.Delete", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoQuestionRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, wrapStoreErr("mongoQuestionRepository.DeleteMany", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoQuestionRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, wrapStoreErr("mongoQuestionRepository.DeleteAll", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoQuestionRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapStoreErr("mongoQuestionRepository.Count", err)
	}
	return n, nil
}
