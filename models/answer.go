package models

// Answer is one formatted recommendation: "key：value" lines plus the photo of the
// matched restaurant, if any.
type Answer struct {
	Text     string `json:"text"`
	PhotoURL string `json:"photo_url,omitempty"`
	PhotoRef string `json:"photo_ref,omitempty"`
}
