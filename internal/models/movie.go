package models

// Movie is a catalog entry. Titles are unique.
type Movie struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	EpisodeID    int    `json:"episode_id"`
	OpeningCrawl string `json:"opening_crawl"`
	Director     string `json:"director"`
	Producer     string `json:"producer"`
	ReleaseDate  string `json:"release_date"`
}

// CreateMovieRequest carries every movie field
type CreateMovieRequest struct {
	Title        string `json:"title" validate:"required" example:"A New Hope"`
	EpisodeID    int    `json:"episode_id" validate:"gte=0" example:"4"`
	OpeningCrawl string `json:"opening_crawl" validate:"required" example:"It is a period of civil war..."`
	Director     string `json:"director" validate:"required" example:"George Lucas"`
	Producer     string `json:"producer" validate:"required" example:"Gary Kurtz, Rick McCallum"`
	ReleaseDate  string `json:"release_date" validate:"required" example:"1977-05-25"`
}

// ToMovie builds the movie described by the request, without an ID
func (r CreateMovieRequest) ToMovie() Movie {
	return Movie{
		Title:        r.Title,
		EpisodeID:    r.EpisodeID,
		OpeningCrawl: r.OpeningCrawl,
		Director:     r.Director,
		Producer:     r.Producer,
		ReleaseDate:  r.ReleaseDate,
	}
}

// UpdateMovieRequest is a partial update; nil fields are left unchanged
type UpdateMovieRequest struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,min=1"`
	EpisodeID    *int    `json:"episode_id,omitempty" validate:"omitempty,gte=0"`
	OpeningCrawl *string `json:"opening_crawl,omitempty"`
	Director     *string `json:"director,omitempty"`
	Producer     *string `json:"producer,omitempty"`
	ReleaseDate  *string `json:"release_date,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (r UpdateMovieRequest) IsEmpty() bool {
	return r.Title == nil && r.EpisodeID == nil && r.OpeningCrawl == nil &&
		r.Director == nil && r.Producer == nil && r.ReleaseDate == nil
}

// Apply copies the set fields of the patch onto m
func (r UpdateMovieRequest) Apply(m *Movie) {
	if r.Title != nil {
		m.Title = *r.Title
	}
	if r.EpisodeID != nil {
		m.EpisodeID = *r.EpisodeID
	}
	if r.OpeningCrawl != nil {
		m.OpeningCrawl = *r.OpeningCrawl
	}
	if r.Director != nil {
		m.Director = *r.Director
	}
	if r.Producer != nil {
		m.Producer = *r.Producer
	}
	if r.ReleaseDate != nil {
		m.ReleaseDate = *r.ReleaseDate
	}
}

// SyncStatus reports the state of catalog synchronisation
type SyncStatus struct {
	Running        bool   `json:"running"`
	LastTrigger    string `json:"last_trigger,omitempty"`
	LastStartedAt  string `json:"last_started_at,omitempty"`
	LastFinishedAt string `json:"last_finished_at,omitempty"`
	LastInserted   int    `json:"last_inserted"`
	LastError      string `json:"last_error,omitempty"`
}
