// Package codegen produces the one-time confirmation codes that later double as Telegram link codes.
package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/ferminotify/core/internal/models"
	"gorm.io/gorm"
)

const (
	// Marker prefixes every code.
	Marker = "X"
	// Length is the number of random characters after the marker.
	Length = 7
	// MaxAttempts bounds the collision retry loop.
	MaxAttempts = 10

	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// largest multiple of len(alphabet) below 256; bytes above it are rejected to keep the draw uniform
	rejectAbove = 252
)

// ErrExhausted is returned when every attempt collided with an existing code.
var ErrExhausted = errors.New("codegen: no unique code available")

// Checker reports whether a code is already assigned.
type Checker interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, code string) (bool, error)

func (f CheckerFunc) Exists(ctx context.Context, code string) (bool, error) { return f(ctx, code) }

// Generator draws codes from a random source.
type Generator struct {
	rand     io.Reader
	attempts int
}

// New returns a Generator backed by crypto/rand.
func New() *Generator {
	return NewWithSource(rand.Reader)
}

// NewWithSource returns a Generator reading randomness from r.
func NewWithSource(r io.Reader) *Generator {
	return &Generator{rand: r, attempts: MaxAttempts}
}

// Code draws one code without checking uniqueness.
func (g *Generator) Code() (string, error) {
	out := make([]byte, 0, len(Marker)+Length)
	out = append(out, Marker...)
	buf := make([]byte, Length*2)
	for len(out) < len(Marker)+Length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("codegen: read random: %w", err)
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == len(Marker)+Length {
				break
			}
		}
	}
	return string(out), nil
}

// Unique draws codes until check reports one as free, giving up after MaxAttempts.
func (g *Generator) Unique(ctx context.Context, check Checker) (string, error) {
	for i := 0; i < g.attempts; i++ {
		code, err := g.Code()
		if err != nil {
			return "", err
		}
		taken, err := check.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("codegen: check uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// StoreChecker checks codes against the subscribers table through db,
// which should be the open transaction when there is one.
func StoreChecker(db *gorm.DB) Checker {
	return CheckerFunc(func(ctx context.Context, code string) (bool, error) {
		var n int64
		err := db.WithContext(ctx).Model(&models.Subscriber{}).Where("telegram = ?", code).Count(&n).Error
		return n > 0, err
	})
}

// Valid reports whether code has the generated shape.
func Valid(code string) bool {
	if len(code) != len(Marker)+Length || code[:len(Marker)] != Marker {
		return false
	}
	for i := len(Marker); i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
