package metastore

// DistributionRef is a distribution entry embedded in a dataset
type DistributionRef struct {
	Type        string `json:"@type,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	Title       string `json:"title,omitempty"`
	MediaType   string `json:"mediaType,omitempty"`
	Format      string `json:"format,omitempty"`
	DownloadURL string `json:"downloadURL"`
}

// Dataset is an item of the "dataset" schema
type Dataset struct {
	Identifier   string            `json:"identifier"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Keyword      []string          `json:"keyword"`
	Modified     string            `json:"modified,omitempty"`
	Distribution []DistributionRef `json:"distribution"`
}

// DistributionData is the payload of a distribution item
type DistributionData struct {
	Title       string `json:"title,omitempty"`
	MediaType   string `json:"mediaType,omitempty"`
	Format      string `json:"format,omitempty"`
	DownloadURL string `json:"downloadURL"`
}

// Distribution is an item of the "distribution" schema
type Distribution struct {
	Identifier string           `json:"identifier"`
	Data       DistributionData `json:"data"`
}
