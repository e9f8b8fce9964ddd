package soundcloud

// Track is the api-v2 track payload, trimmed to the fields this service uses.
type Track struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	ArtworkURL   string `json:"artwork_url"`
	PermalinkURL string `json:"permalink_url"`
	Duration     int64  `json:"duration"`
	User         User   `json:"user"`
	Media        Media  `json:"media"`
}

// User is an api-v2 user payload.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Permalink string `json:"permalink"`
	AvatarURL string `json:"avatar_url"`
	City      string `json:"city"`
	Followers int64  `json:"followers_count"`
}

// Media holds the available transcodings of a track.
type Media struct {
	Transcodings []Transcoding `json:"transcodings"`
}

// Transcoding describes one stream variant of a track.
type Transcoding struct {
	URL     string `json:"url"`
	Preset  string `json:"preset"`
	Quality string `json:"quality"`
	Format  Format `json:"format"`
}

// Format describes a transcoding's container and delivery protocol.
type Format struct {
	Protocol string `json:"protocol"`
	MimeType string `json:"mime_type"`
}

// likesPage is one page of a user's liked tracks.
type likesPage struct {
	Collection []struct {
		Track *Track `json:"track"`
	} `json:"collection"`
}

// streamLocation is the response of a transcoding URL: the actual CDN
// location of the audio.
type streamLocation struct {
	URL string `json:"url"`
}
