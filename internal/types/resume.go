// Package types provides type definitions for structured data used throughout the resume-screener system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Contact holds contact fields pulled out of resume text
type Contact struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// Resume is a candidate resume as stored by ingestion. The engine treats it as read-only.
type Resume struct {
	ID              string    `json:"id"`
	CandidateName   string    `json:"candidate_name"`
	Contact         Contact   `json:"contact"`
	Content         string    `json:"content"`
	NormalizedText  string    `json:"normalized_text"`
	Skills          []string  `json:"skills"`
	ExperienceYears float64   `json:"experience_years"`
	Embedding       []float32 `json:"embedding,omitempty"`
	EmbeddingModel  string    `json:"embedding_model,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// JobPosting is a job description with its required canonical skills
type JobPosting struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	NormalizedText string    `json:"normalized_text"`
	RequiredSkills []string  `json:"required_skills"`
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
