package oura

import "fmt"

// UpstreamError indicates the Oura API answered with a non-2xx status.
// Body holds at most maxErrorBody bytes of the response.
type UpstreamError struct {
	Status int
	Body   string
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("Oura error %d", e.Status)
}

// TransportError indicates the request never produced a usable response
// (connection failure, timeout, cancelled context).
type TransportError struct {
	Err error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("network error talking to Oura: %v", e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }

// DecodeError indicates a 2xx response whose body was not valid JSON.
type DecodeError struct {
	Err error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("invalid JSON from Oura: %v", e.Err)
}

func (e DecodeError) Unwrap() error { return e.Err }
