package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Profile is a Suno user as it appears in listings.
type Profile struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// Clip is a generated song.
type Clip struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// LyricLine is one aligned lyric entry, in seconds from the start of the clip.
type LyricLine struct {
	StartS float64 `json:"start_s"`
	EndS   float64 `json:"end_s"`
	Text   string  `json:"text"`
}

// Project is a workspace and the ids of the clips it holds.
type Project struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	ClipIDs []string `json:"clip_ids,omitempty"`
}

// CreatorStats is the free-form stats object returned for a creator.
type CreatorStats map[string]any

// HandleScore pairs a handle with its creator stats. Stats is nil when the lookup failed.
type HandleScore struct {
	Handle string       `json:"handle"`
	UserID string       `json:"user_id,omitempty"`
	Stats  CreatorStats `json:"stats"`
	Err    error        `json:"-"`
}

// TrendingUser is one row of the trending users search.
type TrendingUser struct {
	Handle         string `json:"handle"`
	DisplayName    string `json:"display_name"`
	FollowersCount int    `json:"followers_count"`
	LikesCount     int    `json:"likes_count"`
	ClipsCount     int    `json:"clips_count"`
	LastLogin      string `json:"last_login,omitempty"`
}

// SnapshotVersion is the schema version written by index builds.
const SnapshotVersion = 1

// IndexItem is one searchable entry of the index.
type IndexItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Snapshot is a complete serialized search index.
type Snapshot struct {
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"createdAt"`
	Total     int         `json:"total"`
	Items     []IndexItem `json:"items"`
}

// NewSnapshot creates a current-version snapshot of items taken at t.
func NewSnapshot(items []IndexItem, t time.Time) *Snapshot {
	if items == nil {
		items = []IndexItem{}
	}
	return &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: t.UTC(),
		Total:     len(items),
		Items:     items,
	}
}
