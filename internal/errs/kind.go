package errs

import "errors"

// Kind is the caller-facing failure class.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindForbidden      Kind = "forbidden"
	KindPersistence    Kind = "persistence"
)

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindAuthentication, []error{ErrUnauthenticated, ErrInvalidToken, ErrInvalidIssuer, ErrTokenExpired, ErrInvalidSubject}},
	{KindValidation, []error{
		ErrInvalidCredentials, ErrInvalidInput, ErrInvalidEmail, ErrInvalidUsername, ErrEmptyPasswordHash,
		ErrPasswordTooShort, ErrDuplicateEmail, ErrDuplicateUsername, ErrEmptyText, ErrTextTooLong, ErrMissingMessageID,
	}},
	{KindNotFound, []error{ErrMessageNotFound}},
	{KindForbidden, []error{ErrForbidden}},
}

// KindOf классифицирует ошибку. Всё неизвестное считается ошибкой хранилища.
func KindOf(err error) Kind {
	for _, k := range kinds {
		for _, e := range k.errs {
			if errors.Is(err, e) {
				return k.kind
			}
		}
	}

	return KindPersistence
}

// Public returns the message that is safe to show to the caller.
func Public(err error) string {
	if KindOf(err) == KindPersistence {
		return ErrPersistence.Error()
	}
	// детали валидации полезны клиенту
	if errors.Is(err, ErrInvalidInput) {
		return err.Error()
	}
	for _, k := range kinds {
		for _, e := range k.errs {
			if errors.Is(err, e) {
				return e.Error()
			}
		}
	}

	return err.Error()
}
