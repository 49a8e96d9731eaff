// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/AleutianAI/lspconn/services/lsp/jsonrpc"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// =============================================================================
// METHOD DESCRIPTORS
// =============================================================================

// RequestMethod is one entry of the client request table. The method name
// is bound to its params type P and result type R when the table is
// built, so a request can never carry params shaped for another method.
type RequestMethod[P, R any] struct {
	method    string
	hasParams bool
	nullable  bool
}

// Method returns the wire method name.
func (m RequestMethod[P, R]) Method() string {
	return m.method
}

// Request binds params to the method.
func (m RequestMethod[P, R]) Request(params P) Request[R] {
	return Request[R]{method: m.method, params: payload(m.hasParams, params), nullable: m.nullable}
}

// nonNull marks a result that must not be JSON null even though R could
// hold it, such as the pointer result of initialize.
func (m RequestMethod[P, R]) nonNull() RequestMethod[P, R] {
	m.nullable = false
	return m
}

// NotificationMethod is one entry of the client notification table.
type NotificationMethod[P any] struct {
	method    string
	hasParams bool
}

// Method returns the wire method name.
func (m NotificationMethod[P]) Method() string {
	return m.method
}

// Notification binds params to the method.
func (m NotificationMethod[P]) Notification(params P) Notification {
	return Notification{method: m.method, params: payload(m.hasParams, params)}
}

// Request is an outgoing request whose response decodes into R.
type Request[R any] struct {
	method   string
	params   any
	nullable bool
}

// Method returns the wire method name.
func (r Request[R]) Method() string {
	return r.method
}

// Params returns the params that will be encoded, nil when omitted.
func (r Request[R]) Params() any {
	return r.params
}

// CustomRequest builds a request for a method outside the fixed table.
// The result is decoded into R; use protocol.LSPAny to keep it raw.
func CustomRequest[R any](method string, params any) Request[R] {
	return Request[R]{method: method, params: params, nullable: nullableResult[R]()}
}

// Notification is an outgoing notification.
type Notification struct {
	method string
	params any
}

// Method returns the wire method name.
func (n Notification) Method() string {
	return n.method
}

// Params returns the params that will be encoded, nil when omitted.
func (n Notification) Params() any {
	return n.params
}

// payload drops the params of methods that carry none.
func payload[P any](hasParams bool, params P) any {
	if !hasParams {
		return nil
	}
	return params
}

// =============================================================================
// TABLE INTROSPECTION
// =============================================================================

// MethodInfo describes one table entry.
type MethodInfo struct {
	// Method is the wire method name.
	Method string

	// Params is the params type, protocol.NoParams for methods without.
	Params reflect.Type

	// Result is the result type. Nil for notifications.
	Result reflect.Type

	// Ack is true for server requests answered through an Ack responder.
	Ack bool
}

var (
	clientRequests      = map[string]MethodInfo{}
	clientNotifications = map[string]MethodInfo{}
)

var noParamsType = reflect.TypeFor[protocol.NoParams]()

func newRequestMethod[P, R any](method string) RequestMethod[P, R] {
	params := reflect.TypeFor[P]()
	register(clientRequests, MethodInfo{Method: method, Params: params, Result: reflect.TypeFor[R]()})
	return RequestMethod[P, R]{method: method, hasParams: params != noParamsType, nullable: nullableResult[R]()}
}

func newNotificationMethod[P any](method string) NotificationMethod[P] {
	params := reflect.TypeFor[P]()
	register(clientNotifications, MethodInfo{Method: method, Params: params})
	return NotificationMethod[P]{method: method, hasParams: params != noParamsType}
}

func register(table map[string]MethodInfo, info MethodInfo) {
	if _, dup := table[info.Method]; dup {
		panic("lsp: duplicate table entry " + info.Method)
	}
	table[info.Method] = info
}

// sortedInfo returns the table entries ordered by method name.
func sortedInfo(table map[string]MethodInfo) []MethodInfo {
	out := make([]MethodInfo, 0, len(table))
	for _, info := range table {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b MethodInfo) int {
		return cmp.Compare(a.Method, b.Method)
	})
	return out
}

// ClientRequestMethods lists the requests the connection can send.
func ClientRequestMethods() []MethodInfo {
	return sortedInfo(clientRequests)
}

// ClientNotificationMethods lists the notifications the connection can send.
func ClientNotificationMethods() []MethodInfo {
	return sortedInfo(clientNotifications)
}

// ServerNotificationMethods lists the notifications the connection decodes.
func ServerNotificationMethods() []MethodInfo {
	out := make(map[string]MethodInfo, len(serverNotifications))
	for method, entry := range serverNotifications {
		out[method] = MethodInfo{Method: method, Params: entry.params}
	}
	return sortedInfo(out)
}

// ServerRequestMethods lists the requests the connection decodes. Methods
// outside this list arrive as *CustomServerRequest.
func ServerRequestMethods() []MethodInfo {
	out := make(map[string]MethodInfo, len(serverRequests))
	for method, entry := range serverRequests {
		out[method] = MethodInfo{Method: method, Params: entry.params, Result: entry.result, Ack: entry.ack}
	}
	return sortedInfo(out)
}

// =============================================================================
// PAYLOAD DECODING
// =============================================================================

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// nullableResult reports whether a JSON null result is legal for R:
// pointers, slices, maps and interfaces, plus types that decode null
// themselves. A plain struct result cannot be null.
func nullableResult[R any]() bool {
	t := reflect.TypeFor[R]()
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return reflect.PointerTo(t).Implements(unmarshalerType)
}

// decodeParams decodes inbound params into P and validates them. Absent
// or null params are only accepted for methods declared with
// protocol.NoParams.
func decodeParams[P any](raw json.RawMessage) (P, error) {
	var params P
	if reflect.TypeFor[P]() == noParamsType {
		return params, nil
	}
	if jsonrpc.IsNull(raw) {
		return params, ErrMissingParams
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, err
	}
	if err := validatePayload(params); err != nil {
		return params, err
	}
	return params, nil
}

// decodeResult decodes a response result into R and validates it.
func decodeResult[R any](raw json.RawMessage, nullable bool) (R, error) {
	var result R
	if !nullable && jsonrpc.IsNull(raw) {
		return result, fmt.Errorf("%w: null result", ErrProtocolViolation)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, err
	}
	if err := validatePayload(result); err != nil {
		return result, err
	}
	return result, nil
}
