package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/folio/app/models"
)

// Index names matter: duplicate-key errors are told apart by them.
const (
	emailIndex = "users_email_unique"
	adminIndex = "users_single_admin"
)

var (
	// ErrEmailTaken is returned when a non-admin account already owns the email.
	ErrEmailTaken = errors.New("repositories: email already registered")
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("repositories: user not found")
)

// UserRepository handles database operations for User.
type UserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(models.UsersCollection), now: time.Now}
}

// EnsureIndexes creates the unique email index and the partial unique index
// that allows at most one document with role "admin".
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
			Options: options.Index().
				SetName(adminIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"role": models.RoleAdmin}),
		},
	})
	if err != nil {
		return fmt.Errorf("repositories: ensure user indexes: %w", err)
	}
	return nil
}

// FindAdmin returns any user with the admin role.
func (r *UserRepository) FindAdmin(ctx context.Context) (models.User, error) {
	return r.findOne(ctx, bson.M{"role": models.RoleAdmin})
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

// CountAdmins counts users holding the admin role.
func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return 0, fmt.Errorf("repositories: count admins: %w", err)
	}
	return n, nil
}

// Count returns the number of accounts.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("repositories: count users: %w", err)
	}
	return n, nil
}

// InsertAdminIfAbsent inserts u as the admin unless an admin already exists,
// as one atomic upsert keyed on the role. created is false when another
// admin was already there, including one inserted concurrently by a racing
// instance.
func (r *UserRepository) InsertAdminIfAbsent(ctx context.Context, u models.User) (created bool, err error) {
	now := r.now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"name":      u.Name,
		"email":     NormalizeEmail(u.Email),
		"password":  u.Password,
		"createdAt": now,
		"updatedAt": now,
	}}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"role": models.RoleAdmin},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, r.resolveDuplicate(ctx, err)
		}
		return false, fmt.Errorf("repositories: insert admin: %w", err)
	}

	return res.UpsertedCount == 1, nil
}

// resolveDuplicate decides what a duplicate-key error on the admin upsert
// means. A racing insert can collide on either index first, so an admin that
// now exists wins over the index name.
func (r *UserRepository) resolveDuplicate(ctx context.Context, dup error) error {
	if strings.Contains(dup.Error(), adminIndex) {
		return nil
	}
	_, err := r.FindAdmin(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrEmailTaken
	default:
		return err
	}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("repositories: find user: %w", err)
	}
	return u, nil
}

// NormalizeEmail is the form every email is stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
