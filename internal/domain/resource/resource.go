package resource

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind names a catalog collection. Genres, movies and customers share one
// shape: a named record.
type Kind string

const (
	Genres    Kind = "genres"
	Movies    Kind = "movies"
	Customers Kind = "customers"
)

var Kinds = []Kind{Genres, Movies, Customers}

// Singular is used in client-facing messages.
func (k Kind) Singular() string {
	switch k {
	case Genres:
		return "genre"
	case Movies:
		return "movie"
	case Customers:
		return "customer"
	default:
		return string(k)
	}
}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

var ErrNotFound = errors.New("resource not found")

type Resource struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Input struct {
	Name string `json:"name" validate:"required,min=5,max=50"`
}

// ListFilter pages through a kind ordered by (name, id). AfterName/AfterID
// are the keyset of the last row of the previous page.
type ListFilter struct {
	Limit     int
	AfterName string
	AfterID   string
}

type Page struct {
	Items      []Resource `json:"items"`
	Count      int        `json:"count"`
	NextCursor *string    `json:"nextCursor,omitempty"`
	HasMore    bool       `json:"hasMore"`
}

type Store interface {
	Create(ctx context.Context, kind Kind, in Input) (Resource, error)
	GetByID(ctx context.Context, kind Kind, id string) (Resource, error)
	List(ctx context.Context, kind Kind, f ListFilter) ([]Resource, bool, error)
	Update(ctx context.Context, kind Kind, id string, in Input) (Resource, error)
	Delete(ctx context.Context, kind Kind, id string) (Resource, error)
}

// New builds a Resource from the incoming DTO.
func New(kind Kind, in Input) Resource {
	now := time.Now().UTC()
	return Resource{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
