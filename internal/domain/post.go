package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in its post and deleted with it. IDs are assigned
// server-side when the comment is appended.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Post is an author's publication with embedded likes and comments.
//
// Likes holds user references; membership is toggled with atomic array
// updates at the storage layer. IsDeleted is the soft-delete flag: a
// soft-deleted post is invisible to reads until restored or hard-deleted.
type Post struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Content     string               `bson:"content" json:"content"`
	Author      primitive.ObjectID   `bson:"author" json:"author"`
	Tags        []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	Images      []string             `bson:"images,omitempty" json:"images,omitempty"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	IsPublished bool                 `bson:"isPublished" json:"isPublished"`
	IsDeleted   bool                 `bson:"isDeleted" json:"isDeleted"`
	PublishedAt *time.Time           `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	ScheduledAt *time.Time           `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`
	Views       int64                `bson:"views" json:"views"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// LikeCount mirrors the likes array length.
func (p Post) LikeCount() int { return len(p.Likes) }

// CommentCount mirrors the comments array length.
func (p Post) CommentCount() int { return len(p.Comments) }
