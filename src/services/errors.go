package services

import (
	"errors"
	"fmt"
)

// User facing messages
const (
	MsgClientNotFound       = "Der Mandant wurde nicht gefunden"
	MsgFeatureNotFound      = "Das Feature wurde nicht gefunden"
	MsgConfigurationMissing = "Die Konfiguration wurde nicht gefunden"
	MsgDetailFailed         = "Etwas ist leider schief gelaufen. Versuchen Sie es noch einmal."
	MsgConfigurationCreate  = "Die Konfiguration wurde nicht hinzugefügt. Versuchen Sie es noch einmal."
	MsgConfigurationUpdate  = "Es gab ein Problem bei der Aktualisierung Ihrer Daten. Bitte versuchen Sie es später noch einmal."
	MsgUsageExists          = "Für diesen Mandanten wurde bereits eine Usage angelegt."
	MsgUsageCreate          = "Die Usage wurde nicht hinzugefügt. Versuchen Sie es noch einmal."
	MsgUsageUpdate          = "Die Usage konnte nicht gespeichert werden. Versuchen Sie es noch einmal."
	MsgUsageDelete          = "Die Usage konnte nicht gelöscht werden. Versuchen Sie es noch einmal."
)

// UserError is a failed write carrying the message shown to the user
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// UserMessage returns the localized message
func (e *UserError) UserMessage() string {
	return e.Message
}

// NotFoundError is returned when a client, feature or configuration of a view does not exist
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// IsUserError checks if an error is a user error
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
