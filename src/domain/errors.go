package domain

import (
	"errors"
	"fmt"
)

var (
	ErrLinkNotFound  = errors.New("asset link not found")
	ErrAssetNotFound = errors.New("asset not found")

	ErrNotAuthorized = errors.New("not authorized")

	// ErrLinkConflict é devolvido pelo store quando a escrita condicional perde
	// para outra aresta com a mesma chave canônica.
	ErrLinkConflict = errors.New("asset link conflicts with an existing link")

	ErrStorage   = errors.New("storage failure")
	ErrIntegrity = errors.New("graph integrity violation")

	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)

type ValidationRule string

const (
	RuleInvalidRelationshipType ValidationRule = "invalid_relationship_type"
	RuleAliasNotAllowed         ValidationRule = "alias_not_allowed"
	RuleInvalidTags             ValidationRule = "invalid_tags"
	RuleInvalidAssetKey         ValidationRule = "invalid_asset_key"
	RuleSelfLink                ValidationRule = "self_link"
	RuleAssetNotFound           ValidationRule = "asset_not_found"
	RuleDuplicateRelated        ValidationRule = "duplicate_related"
	RuleDuplicateAlias          ValidationRule = "duplicate_alias"
	RuleReverseDirection        ValidationRule = "reverse_direction"
	RuleCycle                   ValidationRule = "cycle"
)

// ValidationError é determinístico e volta para o chamador com a regra violada.
type ValidationError struct {
	Rule    ValidationRule
	Message string
	cause   error
}

func NewValidationError(rule ValidationRule, message string) *ValidationError {
	return &ValidationError{Rule: rule, Message: message}
}

// WithCause guarda o erro que levou à rejeição (só para log, nunca exposto).
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation Error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

type PermissionError struct {
	Action  Action
	Message string
}

func NewPermissionError(action Action, message string) *PermissionError {
	return &PermissionError{Action: action, Message: message}
}

func (e *PermissionError) Error() string {
	return e.Message
}

func (e *PermissionError) Unwrap() error {
	return ErrNotAuthorized
}

// AsValidationError devolve o ValidationError da cadeia, se houver.
func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrLinkNotFound) || errors.Is(err, ErrAssetNotFound)
}

// StorageError marca uma falha transitória do store ou do catálogo.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func IntegrityError(op string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrIntegrity, fmt.Sprintf(format, args...))
}
