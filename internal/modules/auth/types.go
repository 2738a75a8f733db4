package auth

import (
	"errors"
	"time"
)

// RefreshTokenTTL is how long a refresh token stays valid after issue or last use.
const RefreshTokenTTL = 365 * 24 * time.Hour

// Fields are validated by the service in a fixed order so the first failing
// rule decides the message, hence no binding tags.
type RegisterDTO struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	Gender    string `json:"gender"`
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Onboarding   bool   `json:"onboarding"`
}

var (
	errMissingFields      = errors.New("missing required fields")
	errPasswordMismatch   = errors.New("passwords do not match")
	errPasswordTooShort   = errors.New("password too short")
	errPasswordTooLong    = errors.New("password too long")
	errInvalidGender      = errors.New("invalid gender")
	errInvalidEmail       = errors.New("invalid email")
	errEmailTaken         = errors.New("email already registered")
	errInvalidCode        = errors.New("invalid confirmation code")
	errAlreadyConfirmed   = errors.New("account already confirmed")
	errInvalidCredentials = errors.New("invalid credentials")
	errInvalidRefresh     = errors.New("invalid or expired refresh token")
	errMissingRefresh     = errors.New("no refresh token provided")
)

// badRequestMessages maps client errors to the text shown to the subscriber.
var badRequestMessages = map[error]string{
	errMissingFields:    "Tutti i campi sono obbligatori!",
	errPasswordMismatch: "Le password non corrispondono!",
	errPasswordTooShort: "La password deve essere lunga almeno 6 caratteri!",
	errPasswordTooLong:  "La password può essere lunga al massimo 72 byte!",
	errInvalidGender:    "Genere non valido!",
	errInvalidEmail:     "Email non valida!",
	errEmailTaken:       "Email già registrata!",
	errInvalidCode:      "Codice di conferma non valido!",
	errAlreadyConfirmed: "Account già confermato!",
	errMissingRefresh:   "Refresh token mancante!",
}

const (
	msgRegistered   = "Ti abbiamo inviato una mail per confermare l'account! (controlla anche lo SPAM)"
	msgResent       = "Ti abbiamo reinviato l'email di conferma! (controlla anche lo SPAM)"
	msgConfirmed    = "Account confermato con successo! Ora puoi effettuare il login."
	msgInvalidLogin = "Credenziali non valide!"
	msgInvalidToken = "Refresh token non valido o scaduto!"
)
