package broker

import (
	"errors"
	"fmt"
)

// ErrMissingCode means the callback arrived without an authorization code.
var ErrMissingCode = errors.New("no authorization code received")

// ErrTokenMissing means the exchange succeeded but the response carried no
// access token.
var ErrTokenMissing = errors.New("access token missing in exchange response")

// ExchangeFailed carries the upstream token endpoint's refusal. Status is
// 0 when the request never completed.
type ExchangeFailed struct {
	Status int
	Body   string
}

func (e ExchangeFailed) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("token exchange failed: %s", e.Body)
	}
	return fmt.Sprintf("token exchange failed: %d - %s", e.Status, e.Body)
}

// PersistFailed means the tokens could not be stored, or did not read
// back after a seemingly successful write.
type PersistFailed struct {
	Err error
}

func (e PersistFailed) Error() string {
	return fmt.Sprintf("token not saved: %v", e.Err)
}

func (e PersistFailed) Unwrap() error { return e.Err }
