package movie

import "github.com/dustin/movie-recommender/config"

// ImageURLs builds TMDB image URLs from stored poster and backdrop paths
type ImageURLs struct {
	baseURL      string
	posterSize   string
	backdropSize string
}

// NewImageURLs creates an image URL builder with TMDB defaults
func NewImageURLs(cfg *config.ImagesConfig) *ImageURLs {
	images := &ImageURLs{
		baseURL:      "https://image.tmdb.org/t/p/",
		posterSize:   "w500",
		backdropSize: "w780",
	}
	if cfg == nil {
		return images
	}
	if cfg.BaseURL != "" {
		images.baseURL = cfg.BaseURL
	}
	if cfg.PosterSize != "" {
		images.posterSize = cfg.PosterSize
	}
	if cfg.BackdropSize != "" {
		images.backdropSize = cfg.BackdropSize
	}
	return images
}

// Poster returns the poster URL, or nil when the movie has no poster
func (i *ImageURLs) Poster(path string) *string {
	return i.build(i.posterSize, path)
}

// Backdrop returns the backdrop URL, or nil when the movie has no backdrop
func (i *ImageURLs) Backdrop(path string) *string {
	return i.build(i.backdropSize, path)
}

func (i *ImageURLs) build(size, path string) *string {
	if path == "" {
		return nil
	}
	url := i.baseURL + size + path
	return &url
}
