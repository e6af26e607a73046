package types

// StoreStats counts the records held by a store
type StoreStats struct {
	Jobs    int `json:"jobs"`
	Resumes int `json:"resumes"`
	Results int `json:"results"`
}
