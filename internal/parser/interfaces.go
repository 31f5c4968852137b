package parser

import (
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

// SourceParser populates a ParseContainer from Go sources
type SourceParser interface {
	ParseSource(c *models.ParseContainer, filename, source string) error
	ParseDirectory(c *models.ParseContainer, path string) error
	ParseFiles(c *models.ParseContainer, files []*models.SourceFile) error
	Warnings() []errors.KnockoffError
}

var _ SourceParser = (*Parser)(nil)
