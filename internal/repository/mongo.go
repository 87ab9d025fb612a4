package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Abdelrahmans123/SocialApp/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository  = (*MongoUserRepo)(nil)
	_ PostRepository  = (*MongoPostRepo)(nil)
	_ TokenRepository = (*MongoTokenRepo)(nil)
)

const (
	usersCollection  = "users"
	postsCollection  = "posts"
	tokensCollection = "tokens"
)

// EnsureIndexes creates the unique and query indexes the repositories
// rely on. Called once at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}

	_, err = db.Collection(tokensCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "jwtId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure token indexes: %w", err)
	}

	_, err = db.Collection(postsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "isDeleted", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensure post indexes: %w", err)
	}

	return nil
}

// MongoUserRepo implements UserRepository on the users collection.
type MongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{col: db.Collection(usersCollection)}
}

func (r *MongoUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (domain.User, error) {
	var user domain.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *MongoUserRepo) GetByEmailWithOTP(ctx context.Context, email string) (domain.User, error) {
	filter := bson.M{"email": email, "otp": bson.M{"$exists": true}}
	var user domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("get user with pending otp: %w", err)
	}
	return user, nil
}

func (r *MongoUserRepo) SetOTP(ctx context.Context, email, otpHash string) error {
	update := bson.M{"$set": bson.M{"otp": otpHash, "updatedAt": time.Now()}}
	if _, err := r.col.UpdateOne(ctx, bson.M{"email": email}, update); err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) ConfirmEmail(ctx context.Context, email string, at time.Time) error {
	update := bson.M{
		"$set":   bson.M{"confirmEmail": at, "updatedAt": time.Now()},
		"$unset": bson.M{"otp": 1},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"email": email}, update); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) ResetPassword(ctx context.Context, email, passwordHash string) error {
	update := bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": time.Now()},
		"$unset": bson.M{"otp": 1},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"email": email}, update); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) StampCredentialChange(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{"changeCredentialTime": at, "updatedAt": time.Now()}}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("stamp credential change: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update UserProfileUpdate) (domain.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoUserRepo) SetAvatar(ctx context.Context, id primitive.ObjectID, avatar domain.Avatar) (domain.User, error) {
	set := bson.M{"avatar": avatar, "updatedAt": time.Now()}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoUserRepo) SetFrozen(ctx context.Context, id primitive.ObjectID, frozen bool) (domain.User, error) {
	set := bson.M{"isFrozen": frozen, "updatedAt": time.Now()}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoUserRepo) Search(ctx context.Context, query string) ([]domain.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"email": pattern},
	}}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoUserRepo) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (domain.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user domain.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// MongoPostRepo implements PostRepository on the posts collection.
type MongoPostRepo struct {
	col *mongo.Collection
}

func NewMongoPostRepo(db *mongo.Database) *MongoPostRepo {
	return &MongoPostRepo{col: db.Collection(postsCollection)}
}

func (r *MongoPostRepo) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []domain.Comment{}
	}

	res, err := r.col.InsertOne(ctx, post)
	if err != nil {
		return domain.Post{}, fmt.Errorf("insert post: %w", err)
	}
	post.ID = res.InsertedID.(primitive.ObjectID)
	return post, nil
}

func (r *MongoPostRepo) GetByID(ctx context.Context, id primitive.ObjectID) (domain.Post, error) {
	var post domain.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return domain.Post{}, fmt.Errorf("get post by id: %w", err)
	}
	return post, nil
}

func (r *MongoPostRepo) GetVisible(ctx context.Context, id primitive.ObjectID) (domain.Post, error) {
	var post domain.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "isDeleted": false}).Decode(&post); err != nil {
		return domain.Post{}, fmt.Errorf("get visible post: %w", err)
	}
	return post, nil
}

func (r *MongoPostRepo) Find(ctx context.Context, filter PostFilter) ([]domain.Post, error) {
	query := bson.M{}
	if !filter.IncludeDeleted {
		query["isDeleted"] = false
	}
	if filter.Author != nil {
		query["author"] = *filter.Author
	}
	if len(filter.Tags) > 0 {
		query["tags"] = bson.M{"$in": filter.Tags}
	}
	if filter.Published != nil {
		query["isPublished"] = *filter.Published
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
			bson.M{"tags": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	var posts []domain.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepo) Update(ctx context.Context, id primitive.ObjectID, update PostUpdate) (domain.Post, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.Tags != nil {
		set["tags"] = update.Tags
	}
	if update.Images != nil {
		set["images"] = update.Images
	}
	if update.IsPublished != nil {
		set["isPublished"] = *update.IsPublished
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoPostRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}}); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (r *MongoPostRepo) AddLike(ctx context.Context, id, userID primitive.ObjectID) (domain.Post, error) {
	update := bson.M{
		"$addToSet": bson.M{"likes": userID},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *MongoPostRepo) RemoveLike(ctx context.Context, id, userID primitive.ObjectID) (domain.Post, error) {
	update := bson.M{
		"$pull": bson.M{"likes": userID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *MongoPostRepo) AddComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) (domain.Post, error) {
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *MongoPostRepo) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) (domain.Post, error) {
	update := bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *MongoPostRepo) SetPublished(ctx context.Context, id primitive.ObjectID, published bool, publishedAt, scheduledAt *time.Time) error {
	set := bson.M{"isPublished": published, "updatedAt": time.Now()}
	unset := bson.M{}
	if publishedAt != nil {
		set["publishedAt"] = *publishedAt
	}
	if scheduledAt != nil {
		set["scheduledAt"] = *scheduledAt
	} else if !published {
		unset["scheduledAt"] = 1
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	return nil
}

func (r *MongoPostRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, unpublish bool) error {
	set := bson.M{"isDeleted": true, "updatedAt": time.Now()}
	if unpublish {
		set["isPublished"] = false
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	return nil
}

func (r *MongoPostRepo) Restore(ctx context.Context, id primitive.ObjectID, republish bool) error {
	set := bson.M{"isDeleted": false, "updatedAt": time.Now()}
	if republish {
		set["isPublished"] = true
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("restore post: %w", err)
	}
	return nil
}

func (r *MongoPostRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoPostRepo) Trending(ctx context.Context, since time.Time, limit int64) ([]domain.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"isDeleted":   false,
			"isPublished": true,
			"createdAt":   bson.M{"$gte": since},
		}}},
		{{Key: "$addFields", Value: bson.M{"likeCount": bson.M{"$size": "$likes"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "likeCount", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate trending: %w", err)
	}
	var posts []domain.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode trending posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepo) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (domain.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post domain.Post
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&post); err != nil {
		return domain.Post{}, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// MongoTokenRepo implements TokenRepository on the tokens collection.
type MongoTokenRepo struct {
	col *mongo.Collection
}

func NewMongoTokenRepo(db *mongo.Database) *MongoTokenRepo {
	return &MongoTokenRepo{col: db.Collection(tokensCollection)}
}

func (r *MongoTokenRepo) Create(ctx context.Context, token domain.Token) (domain.Token, error) {
	token.CreatedAt = time.Now()
	res, err := r.col.InsertOne(ctx, token)
	if err != nil {
		return domain.Token{}, fmt.Errorf("insert token: %w", err)
	}
	token.ID = res.InsertedID.(primitive.ObjectID)
	return token, nil
}

func (r *MongoTokenRepo) GetByJWTID(ctx context.Context, jwtID string) (domain.Token, error) {
	var token domain.Token
	if err := r.col.FindOne(ctx, bson.M{"jwtId": jwtID}).Decode(&token); err != nil {
		return domain.Token{}, fmt.Errorf("get token by jwt id: %w", err)
	}
	return token, nil
}
