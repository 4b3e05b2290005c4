package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Analysis is one persisted scoring run: the label text as submitted, the
// normalized ingredients, and the full score result, both stored as JSON.
type Analysis struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	Category        string    `json:"category"`
	ProductName     string    `json:"product_name"`
	RawText         string    `json:"raw_text"`
	IngredientsJSON string    `json:"ingredients_json"` // JSON array stored as text
	ResultJSON      string    `json:"result_json"`      // scoring.ScoreResult stored as text
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
