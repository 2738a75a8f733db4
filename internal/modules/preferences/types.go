package preferences

import (
	"encoding/json"
	"errors"
)

var (
	errInvalidOption = errors.New("invalid notification preferences option")
	errInvalidTime   = errors.New("invalid notification time")
	errInvalidDay    = errors.New("invalid day-before flag")
	errNotFound      = errors.New("subscriber not found")
)

// OptionDTO carries the channel as raw JSON so that non-integer values are
// rejected instead of coerced.
type OptionDTO struct {
	Option json.RawMessage `json:"option"`
}

// TimeDTO accepts time as "HH:MM" or as a minute of day.
type TimeDTO struct {
	Time json.RawMessage `json:"time"`
	Day  *bool           `json:"day"`
}

const (
	msgChannelUpdated = "Preferenze di notifica aggiornate con successo!"
	msgToggled        = "Preferenza notifiche probabili aggiornata con successo!"
	msgTimeUpdated    = "Orario di notifica aggiornato con successo!"
)

var badRequestMessages = map[error]string{
	errInvalidOption: "Opzione di notifica non valida!",
	errInvalidTime:   "Orario non valido! Usa il formato HH:MM.",
	errInvalidDay:    "Il campo day deve essere true o false!",
}
