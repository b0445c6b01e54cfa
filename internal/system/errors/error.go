/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package errors

import (
	"errors"
	"fmt"
)

type ErrorMessage struct {
	Code        string `json:"error_code"`
	Message     string `json:"error_message"`
	Description string `json:"error_description"`
}

// ClientError is a non-retryable error caused by missing or invalid input:
// a required remote entity that does not exist, or an absent configuration
// value. Fatal to the operation that raised it.
type ClientError struct {
	ErrorMessage
}

// ServerError wraps an underlying failure (remote call, parse, IO). Whether
// it aborts an operation is decided by the caller.
type ServerError struct {
	ErrorMessage
	Err error
}

// TransientError marks a remote failure as retryable by the execution
// queue: network errors, 5xx responses, 429 throttling and timeouts.
// RetryAfter carries the server's wait hint when one was supplied.
type TransientError struct {
	ErrorMessage
	Err        error
	RetryAfter float64 // seconds; 0 when the server gave no hint
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func NewServerError(msg ErrorMessage, cause error) *ServerError {
	return &ServerError{
		ErrorMessage: msg,
		Err:          cause,
	}
}

func NewClientError(msg ErrorMessage) *ClientError {
	return &ClientError{
		ErrorMessage: msg,
	}
}

func NewClientErrorWithDescription(msg ErrorMessage, description string) *ClientError {
	msg.Description = description
	return &ClientError{
		ErrorMessage: msg,
	}
}

func NewTransientError(msg ErrorMessage, cause error) *TransientError {
	return &TransientError{
		ErrorMessage: msg,
		Err:          cause,
	}
}

func NewThrottledError(msg ErrorMessage, cause error, retryAfterSeconds float64) *TransientError {
	return &TransientError{
		ErrorMessage: msg,
		Err:          cause,
		RetryAfter:   retryAfterSeconds,
	}
}

// IsTransient reports whether err or any error it wraps is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// RetryAfterSeconds extracts the throttling wait hint from err, if present.
func RetryAfterSeconds(err error) (float64, bool) {
	var te *TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter, true
	}
	return 0, false
}
