package generator

import (
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

// CodeGenerator turns a parsed, woven container and its profile tree into output files
type CodeGenerator interface {
	Generate(c *models.ParseContainer, tree *models.ProfileTree) (*models.GenerationResult, error)
	Warnings() []errors.KnockoffError
}

var _ CodeGenerator = (*Generator)(nil)
