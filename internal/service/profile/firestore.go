package profile

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection holds one document per user, keyed by user id.
const DefaultCollection = "users"

// firestoreDocument maps to the Firestore document structure.
type firestoreDocument struct {
	Name         string    `firestore:"name"`
	Phone        string    `firestore:"phone"`
	Address1     string    `firestore:"address1"`
	Address2     string    `firestore:"address2"`
	AvatarFileID string    `firestore:"avatarFileId"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// FirestoreDocuments implements Documents on a Firestore collection.
type FirestoreDocuments struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreDocuments creates a Documents adapter. An empty collection name
// selects DefaultCollection.
func NewFirestoreDocuments(client *firestore.Client, collection string) *FirestoreDocuments {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreDocuments{client: client, collection: collection}
}

func (d *FirestoreDocuments) Get(ctx context.Context, userID string) (*Document, error) {
	snap, err := d.client.Collection(d.collection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("document %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	var fd firestoreDocument
	if err := snap.DataTo(&fd); err != nil {
		return nil, err
	}
	return &Document{
		Name:         fd.Name,
		Phone:        fd.Phone,
		Address1:     fd.Address1,
		Address2:     fd.Address2,
		AvatarFileID: fd.AvatarFileID,
		UpdatedAt:    fd.UpdatedAt,
	}, nil
}

// Update writes only the provided paths plus updatedAt. The document must
// already exist.
func (d *FirestoreDocuments) Update(ctx context.Context, userID string, update DocumentUpdate) error {
	updates := documentPaths(update)
	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})

	if _, err := d.client.Collection(d.collection).Doc(userID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("document %s: %w", userID, ErrNotFound)
		}
		return err
	}
	return nil
}

func documentPaths(u DocumentUpdate) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, v *string) {
		if v != nil {
			updates = append(updates, firestore.Update{Path: path, Value: *v})
		}
	}
	add("name", u.Name)
	add("phone", u.Phone)
	add("address1", u.Address1)
	add("address2", u.Address2)
	add("avatarFileId", u.AvatarFileID)
	return updates
}

// Compile-time interface check
var _ Documents = (*FirestoreDocuments)(nil)
