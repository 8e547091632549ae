package random

import (
	"crypto/rand"
	"math/big"

	"github.com/myrjola/taalquest/internal/errors"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns a string of n random ASCII letters.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := Intn(len(allowedLetters))
		if err != nil {
			return "", err
		}
		letters[i] = allowedLetters[letterIndex]
	}
	return string(letters), nil
}

// Intn returns a uniform random number in [0, n).
func Intn(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("n must be positive")
	}
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, errors.Wrap(err, "read random")
	}
	return int(i.Int64()), nil
}

// Pick returns a random element of items.
func Pick[T any](items []T) (T, error) {
	var zero T
	i, err := Intn(len(items))
	if err != nil {
		return zero, errors.Wrap(err, "pick")
	}
	return items[i], nil
}

// Shuffle permutes items in place with the Fisher-Yates algorithm.
func Shuffle[T any](items []T) error {
	for i := len(items) - 1; i > 0; i-- {
		j, err := Intn(i + 1)
		if err != nil {
			return errors.Wrap(err, "shuffle")
		}
		items[i], items[j] = items[j], items[i]
	}
	return nil
}
