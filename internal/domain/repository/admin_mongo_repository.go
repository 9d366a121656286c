package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AdminsCollection = "admins"

type mongoAdminRepository struct {
	col *mongo.Collection
}

func NewMongoAdminRepository(ctx context.Context, db *mongo.Database) (AdminRepository, error) {
	col := db.Collection(AdminsCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return nil, wrapStoreErr("mongoAdminRepository.indexes", err)
	}
	return &mongoAdminRepository{col: col}, nil
}

func (r *mongoAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	if _, err := r.col.InsertOne(ctx, admin); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin with given username or email already exists: %w", common.ErrConflict)
		}
		return wrapStoreErr("mongoAdminRepository.Create", err)
	}
	return nil
}

func (r *mongoAdminRepository) findOne(ctx context.Context, op string, filter bson.M) (*model.Admin, error) {
	var admin model.Admin
	if err := r.col.FindOne(ctx, filter).Decode(&admin); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, wrapStoreErr(op, err)
	}
	return &admin, nil
}

func (r *mongoAdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.findOne(ctx, "mongoAdminRepository.FindByEmail", bson.M{"email": email})
}

func (r *mongoAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return r.findOne(ctx, "mongoAdminRepository.FindByUsername", bson.M{"username": username})
}

func (r *mongoAdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	return r.findOne(ctx, "mongoAdminRepository.FindByID", bson.M{"_id": id})
}

func (r *mongoAdminRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapStoreErr("mongoAdminRepository.Count", err)
	}
	return n, nil
}

func (r *mongoAdminRepository) SetResetToken(ctx context.Context, adminID, digest string, expires time.Time) error {
	res, err := r.col.UpdateByID(ctx, adminID, bson.M{"$set": bson.M{
		"resetPasswordToken":   digest,
		"resetPasswordExpires": expires,
	}})
	if err != nil {
		return wrapStoreErr("mongoAdminRepository.SetResetToken", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoAdminRepository) FindByResetToken(ctx context.Context, digest string, now time.Time) (*model.Admin, error) {
	return r.findOne(ctx, "mongoAdminRepository.FindByResetToken", bson.M{
		"resetPasswordToken":   digest,
		"resetPasswordExpires": bson.M{"$gt": now},
	})
}

var clearResetToken = bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""}

func (r *mongoAdminRepository) ConsumeResetToken(ctx context.Context, digest string, now time.Time, passwordHash string) (string, error) {
	filter := bson.M{
		"resetPasswordToken":   digest,
		"resetPasswordExpires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password": passwordHash},
		"$unset": clearResetToken,
	}
	var admin model.Admin
	err := r.col.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", common.ErrNotFound
		}
		return "", wrapStoreErr("mongoAdminRepository.ConsumeResetToken", err)
	}
	return admin.ID, nil
}

func (r *mongoAdminRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"resetPasswordExpires": bson.M{"$lte": now}},
		bson.M{"$unset": clearResetToken},
	)
	if err != nil {
		return 0, wrapStoreErr("mongoAdminRepository.ClearExpiredResetTokens", err)
	}
	return res.ModifiedCount, nil
}
