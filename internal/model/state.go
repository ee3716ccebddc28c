package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// ErrDecode is returned when a stored record does not have the expected
// shape, for example an unknown state value.
var ErrDecode = errors.New("decode error")

// RequestState is the lifecycle state of a circulation request.
type RequestState string

const (
	StateRequested RequestState = "requested"
	StateIssued    RequestState = "issued"
	StateReturned  RequestState = "returned"
	StateRejected  RequestState = "rejected"
	StateExpired   RequestState = "expired"
)

// ParseRequestState validates s against the known states.
func ParseRequestState(s string) (RequestState, error) {
	switch st := RequestState(s); st {
	case StateRequested, StateIssued, StateReturned, StateRejected, StateExpired:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown request state %q", ErrDecode, s)
}

// Active reports whether the request still holds a copy.
func (s RequestState) Active() bool {
	return s == StateRequested || s == StateIssued
}

// Terminal reports whether no further transition is possible.
func (s RequestState) Terminal() bool {
	return s == StateReturned || s == StateRejected || s == StateExpired
}

// Scan implements sql.Scanner.
func (s *RequestState) Scan(src any) error {
	raw, err := scanString(src)
	if err != nil {
		return err
	}
	st, err := ParseRequestState(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s RequestState) Value() (driver.Value, error) {
	if _, err := ParseRequestState(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	ActivityRequest         ActivityType = "request"
	ActivityIssue           ActivityType = "issue"
	ActivityReturn          ActivityType = "return"
	ActivityRequestApproved ActivityType = "request_approved"
	ActivityRequestRejected ActivityType = "request_rejected"
	ActivityRequestExpired  ActivityType = "request_expired"
)

// ParseActivityType validates s against the known activity types.
func ParseActivityType(s string) (ActivityType, error) {
	switch at := ActivityType(s); at {
	case ActivityRequest, ActivityIssue, ActivityReturn,
		ActivityRequestApproved, ActivityRequestRejected, ActivityRequestExpired:
		return at, nil
	}
	return "", fmt.Errorf("%w: unknown activity type %q", ErrDecode, s)
}

// Scan implements sql.Scanner.
func (a *ActivityType) Scan(src any) error {
	raw, err := scanString(src)
	if err != nil {
		return err
	}
	at, err := ParseActivityType(raw)
	if err != nil {
		return err
	}
	*a = at
	return nil
}

// Value implements driver.Valuer.
func (a ActivityType) Value() (driver.Value, error) {
	if _, err := ParseActivityType(string(a)); err != nil {
		return nil, err
	}
	return string(a), nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("%w: missing value", ErrDecode)
	default:
		return "", fmt.Errorf("%w: unexpected column type %T", ErrDecode, src)
	}
}
